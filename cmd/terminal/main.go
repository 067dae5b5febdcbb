package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"convpos/terminal/internal/backend"
	"convpos/terminal/internal/cache"
	"convpos/terminal/internal/catalog"
	"convpos/terminal/internal/config"
	"convpos/terminal/internal/httpapi"
	"convpos/terminal/internal/journal"
	journalmem "convpos/terminal/internal/journal/memory"
	journalpg "convpos/terminal/internal/journal/postgres"
	"convpos/terminal/internal/service"
	"convpos/terminal/internal/session"
)

func main() {
	cfg := config.Load()
	if cfg.SupervisorPIN != "" {
		if err := validatePINStrength(cfg.SupervisorPIN); err != nil {
			log.Fatalf("SUPERVISOR_PIN is too weak: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	var jr journal.Journal
	if cfg.DatabaseURL != "" {
		pg, err := journalpg.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory journal", err)
		}
		jr = pg
		closers = append(closers, pg.Close)
		log.Println("journal: postgres")
	} else {
		jr = journalmem.New()
		log.Println("journal: in-memory")
	}

	catalogCache := cache.CatalogCache(cache.NoopCatalogCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			catalogCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("catalog cache: redis")
		}
	} else {
		log.Println("catalog cache: noop")
	}

	sess := session.New()
	client := backend.New(cfg.BackendBaseURL, time.Duration(cfg.BackendTimeoutSeconds)*time.Second, sess, cfg.StoreCode)
	cat := catalog.New(client, catalogCache, time.Duration(cfg.CatalogTTLSeconds)*time.Second)

	svc, err := service.New(client, cat, jr, sess, cfg.TerminalID, cfg.SupervisorPIN)
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS terminal %s listening on %s (backend %s)", cfg.TerminalID, cfg.Address(), cfg.BackendBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("terminal stopped")
}

// validatePINStrength rejects PINs that are too short, all the same digit,
// sequential, or on a known-weak list.
func validatePINStrength(pin string) error {
	if len(pin) < 4 {
		return fmt.Errorf("must be at least 4 digits")
	}
	known := map[string]bool{
		"1234": true, "4321": true, "0000": true, "1111": true,
		"123456": true, "654321": true, "000000": true, "111111": true,
		"121212": true, "112233": true, "123123": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
