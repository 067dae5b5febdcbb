// Package journal is the terminal's electronic journal: an append-only
// local record of everything that happened at the till. It is the audit
// trail for reconciling against the backend, not a source of truth.
package journal

import (
	"context"
	"time"
)

// Event codes recorded in the journal.
const (
	EventOrderStarted    = "order_started"
	EventOrderCancelled  = "order_cancelled"
	EventItemAdded       = "item_added"
	EventItemRemoved     = "item_removed"
	EventQuantityChanged = "quantity_changed"
	EventCartCleared     = "cart_cleared"
	EventPaymentAdded    = "payment_added"
	EventCompleted       = "transaction_completed"
)

type Entry struct {
	ID         string    `json:"id"`
	TerminalID string    `json:"terminal_id"`
	OrderNo    string    `json:"order_no,omitempty"`
	Event      string    `json:"event"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Journal appends entries durably and lists the most recent ones,
// newest first.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
