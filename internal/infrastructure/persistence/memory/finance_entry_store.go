package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/propertyhub/backend/internal/domain/finance"
)

// FinanceEntryStore is an append-only in-memory finance entry store
type FinanceEntryStore struct {
	mu      sync.RWMutex
	entries []finance.FinanceEntry
}

// NewFinanceEntryStore creates a store seeded with entries
func NewFinanceEntryStore(entries ...finance.FinanceEntry) *FinanceEntryStore {
	s := &FinanceEntryStore{}
	s.Add(entries...)
	return s
}

// Add records entries. Entries are immutable once added.
func (s *FinanceEntryStore) Add(entries ...finance.FinanceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// ListEntries returns the entries matching the query ordered by occurrence
func (s *FinanceEntryStore) ListEntries(_ context.Context, query finance.EntryQuery) ([]finance.FinanceEntry, error) {
	s.mu.RLock()
	out := make([]finance.FinanceEntry, 0)
	for _, e := range s.entries {
		if query.Matches(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

// OwnerDirectory is a fixed set of known owners
type OwnerDirectory struct {
	mu     sync.RWMutex
	owners map[uuid.UUID]struct{}
}

// NewOwnerDirectory creates a directory knowing the given owners
func NewOwnerDirectory(ownerIDs ...uuid.UUID) *OwnerDirectory {
	d := &OwnerDirectory{owners: make(map[uuid.UUID]struct{})}
	d.Register(ownerIDs...)
	return d
}

// Register adds owners to the directory
func (d *OwnerDirectory) Register(ownerIDs ...uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ownerIDs {
		d.owners[id] = struct{}{}
	}
}

// OwnerExists reports whether the owner is known
func (d *OwnerDirectory) OwnerExists(_ context.Context, ownerID uuid.UUID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.owners[ownerID]
	return ok, nil
}
