package memory

import (
	"context"
	"testing"
	"time"

	"convpos/terminal/internal/journal"
)

func TestAppendAndListRecent(t *testing.T) {
	j := New()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i, event := range []string{journal.EventOrderStarted, journal.EventItemAdded, journal.EventPaymentAdded} {
		err := j.Append(ctx, journal.Entry{
			ID:         string(rune('a' + i)),
			TerminalID: "T1",
			Event:      event,
			At:         base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := j.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Event != journal.EventPaymentAdded || entries[1].Event != journal.EventItemAdded {
		t.Fatalf("order = %s, %s; want newest first", entries[0].Event, entries[1].Event)
	}

	all, err := j.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
}
