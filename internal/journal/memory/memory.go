// Package memory is the in-memory journal used when no database is
// configured. Entries do not survive a restart.
package memory

import (
	"context"
	"sync"

	"convpos/terminal/internal/journal"
)

type Journal struct {
	mu      sync.RWMutex
	entries []journal.Entry
}

func New() *Journal {
	return &Journal{}
}

func (j *Journal) Append(_ context.Context, entry journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

func (j *Journal) ListRecent(_ context.Context, limit int) ([]journal.Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 || limit > len(j.entries) {
		limit = len(j.entries)
	}
	out := make([]journal.Entry, 0, limit)
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.entries[i])
	}
	return out, nil
}
