package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"convpos/terminal/internal/domain"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestEstablishReadsExpiryClaim(t *testing.T) {
	s := New()
	exp := time.Now().Add(8 * time.Hour).Truncate(time.Second)
	s.Establish(signedToken(t, exp), domain.User{ID: 42, Username: "vendor01"})

	if got := s.ExpiresAt(); !got.Equal(exp) {
		t.Fatalf("expiresAt = %v, want %v", got, exp)
	}
	if s.Expired(time.Now()) {
		t.Fatal("fresh token reported expired")
	}
	if !s.Authenticated(time.Now()) {
		t.Fatal("fresh session reported unauthenticated")
	}
	user, ok := s.User()
	if !ok || user.Username != "vendor01" {
		t.Fatalf("user = %+v ok=%v", user, ok)
	}
}

func TestExpiredToken(t *testing.T) {
	s := New()
	s.Establish(signedToken(t, time.Now().Add(-time.Minute)), domain.User{ID: 1})

	if !s.Expired(time.Now()) {
		t.Fatal("stale token not reported expired")
	}
	if s.Authenticated(time.Now()) {
		t.Fatal("stale session reported authenticated")
	}
}

func TestOpaqueTokenTreatedAsLive(t *testing.T) {
	s := New()
	s.Establish("not-a-jwt", domain.User{ID: 1})

	if s.Expired(time.Now()) {
		t.Fatal("opaque token must not be treated as expired")
	}
	if !s.Authenticated(time.Now()) {
		t.Fatal("opaque token session should count as authenticated")
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.Establish(signedToken(t, time.Now().Add(time.Hour)), domain.User{ID: 1})
	s.Clear()

	if s.Token() != "" {
		t.Fatal("token survived Clear")
	}
	if _, ok := s.User(); ok {
		t.Fatal("user survived Clear")
	}
	if s.Authenticated(time.Now()) {
		t.Fatal("cleared session reported authenticated")
	}
}
