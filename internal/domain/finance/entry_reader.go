package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntryQuery selects finance entries for one owner
type EntryQuery struct {
	OwnerID    uuid.UUID
	PropertyID *uuid.UUID // nil selects every property of the owner
	From       *time.Time // inclusive
	To         *time.Time // inclusive
}

// Matches reports whether the entry falls inside the query
func (q EntryQuery) Matches(e FinanceEntry) bool {
	if e.OwnerID != q.OwnerID {
		return false
	}
	if q.PropertyID != nil && (e.PropertyID == nil || *e.PropertyID != *q.PropertyID) {
		return false
	}
	if q.From != nil && e.OccurredAt.Before(*q.From) {
		return false
	}
	if q.To != nil && e.OccurredAt.After(*q.To) {
		return false
	}
	return true
}

// FinanceEntryReader is the read-only bulk fetch into the external finance
// entry store. This service never writes entries.
type FinanceEntryReader interface {
	ListEntries(ctx context.Context, query EntryQuery) ([]FinanceEntry, error)
}
