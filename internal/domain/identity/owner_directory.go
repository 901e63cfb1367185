package identity

import (
	"context"

	"github.com/google/uuid"
)

// OwnerDirectory resolves owner identifiers against the external user directory.
// This service only reads from it.
type OwnerDirectory interface {
	// OwnerExists reports whether ownerID is a known property owner
	OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error)
}
