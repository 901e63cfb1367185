package payout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/shared"
)

// PayoutRequestFilter defines filtering options for payout request queries
type PayoutRequestFilter struct {
	shared.Filter
	PropertyID *uuid.UUID    // Only requests scoped to this property
	Status     *PayoutStatus // Only requests in this status
}

// PayoutRequestRepository is the payout ledger. It stores requests and answers
// queries; it holds no business validation.
type PayoutRequestRepository interface {
	// Create persists a new request
	Create(ctx context.Context, req *PayoutRequest) error

	// FindByID returns NOT_FOUND if no request has the id
	FindByID(ctx context.Context, id uuid.UUID) (*PayoutRequest, error)

	// ListForOwner returns the owner's requests, most recent request date first,
	// plus the total count before paging
	ListForOwner(ctx context.Context, ownerID uuid.UUID, filter PayoutRequestFilter) ([]PayoutRequest, int64, error)

	// ListByStatus returns requests across all owners, most recent first
	ListByStatus(ctx context.Context, filter PayoutRequestFilter) ([]PayoutRequest, int64, error)

	// Update persists a transition. The stored version must equal req.Version-1,
	// otherwise CONCURRENCY_CONFLICT is returned.
	Update(ctx context.Context, req *PayoutRequest) error

	// SumReserved totals RequestedAmount over pending, approved and paid
	// requests. A nil propertyID sums every request of the owner.
	SumReserved(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (decimal.Decimal, error)
}
