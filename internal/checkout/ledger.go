package checkout

import "convpos/terminal/internal/domain"

// Ledger is the append-only record of committed tender legs for the open
// order. Entries are never edited or removed individually; the ledger is
// cleared only when the order completes or the session resets.
type Ledger struct {
	entries []domain.PaymentEntry
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(e domain.PaymentEntry) {
	l.entries = append(l.entries, e)
}

func (l *Ledger) Clear() {
	l.entries = nil
}

// Entries returns a copy in commit order.
func (l *Ledger) Entries() []domain.PaymentEntry {
	out := make([]domain.PaymentEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// TotalPaid is the sum of committed amounts. Cash tendered above the amount
// does not count toward settlement; change goes back to the customer.
func (l *Ledger) TotalPaid() float64 {
	var total float64
	for _, e := range l.entries {
		total += e.Amount
	}
	return total
}

// Remaining is the unpaid balance against a subtotal, floored at zero.
func (l *Ledger) Remaining(subtotal float64) float64 {
	r := subtotal - l.TotalPaid()
	if r < 0 {
		return 0
	}
	return r
}

func (l *Ledger) Empty() bool {
	return len(l.entries) == 0
}
