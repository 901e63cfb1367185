package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OwnerLocker serializes work per owner. fn runs while the owner's lock is
// held; locks for different owners never block each other.
type OwnerLocker interface {
	WithOwnerLock(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context) error) error
}

// Clock supplies the current instant. Services take one so tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
