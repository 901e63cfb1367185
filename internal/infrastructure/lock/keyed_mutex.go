// Package lock provides owner-scoped mutual exclusion for payout mutations.
package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/propertyhub/backend/internal/domain/shared"
)

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex serializes work per owner inside one process. Entries are
// reference counted and dropped once no goroutine holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*keyedEntry
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[uuid.UUID]*keyedEntry)}
}

func (k *KeyedMutex) acquire(ownerID uuid.UUID) *keyedEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[ownerID]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.entries[ownerID] = e
	}
	e.refs++
	return e
}

func (k *KeyedMutex) release(ownerID uuid.UUID, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, ownerID)
	}
}

// WithOwnerLock runs fn while holding the owner's lock. Waiting stops when ctx
// is done, in which case the context error is returned and fn never runs.
func (k *KeyedMutex) WithOwnerLock(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context) error) error {
	e := k.acquire(ownerID)
	defer k.release(ownerID, e)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.sem }()

	return fn(ctx)
}

// Len returns the number of owners currently tracked
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

var _ shared.OwnerLocker = (*KeyedMutex)(nil)
