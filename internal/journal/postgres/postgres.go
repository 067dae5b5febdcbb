// Package postgres persists the electronic journal in Postgres so entries
// survive terminal restarts and can be pulled for reconciliation.
package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"convpos/terminal/internal/journal"
)

type Journal struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Journal, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS journal_entries (
			id          TEXT PRIMARY KEY,
			terminal_id TEXT NOT NULL,
			order_no    TEXT NOT NULL DEFAULT '',
			event       TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			at          TIMESTAMPTZ NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Append(ctx context.Context, entry journal.Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO journal_entries (id, terminal_id, order_no, event, detail, at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.TerminalID, entry.OrderNo, entry.Event, entry.Detail, entry.At)
	return err
}

func (j *Journal) ListRecent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, terminal_id, order_no, event, detail, at
		FROM journal_entries
		ORDER BY at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]journal.Entry, 0, limit)
	for rows.Next() {
		var e journal.Entry
		if err := rows.Scan(&e.ID, &e.TerminalID, &e.OrderNo, &e.Event, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
