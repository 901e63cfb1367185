// Package memory provides in-process implementations of the payout ledger,
// the finance entry store and the owner directory. They back local
// development with database.driver = memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
)

// PayoutRequestRepository keeps payout requests in a map. Stored values are
// copies so callers cannot mutate the ledger without calling Update.
type PayoutRequestRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]payout.PayoutRequest
}

// NewPayoutRequestRepository creates an empty repository
func NewPayoutRequestRepository() *PayoutRequestRepository {
	return &PayoutRequestRepository{requests: make(map[uuid.UUID]payout.PayoutRequest)}
}

func detach(p payout.PayoutRequest) payout.PayoutRequest {
	p.ClearDomainEvents()
	return p
}

// Create persists a new request
func (r *PayoutRequestRepository) Create(_ context.Context, req *payout.PayoutRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.ID]; exists {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Payout request already exists")
	}
	r.requests[req.ID] = detach(*req)
	return nil
}

// FindByID returns a copy of the stored request
func (r *PayoutRequestRepository) FindByID(_ context.Context, id uuid.UUID) (*payout.PayoutRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.requests[id]
	if !ok {
		return nil, shared.NotFound("Payout request", id)
	}
	return &p, nil
}

// ListForOwner returns the owner's requests, most recent request date first
func (r *PayoutRequestRepository) ListForOwner(_ context.Context, ownerID uuid.UUID, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64, error) {
	items, total := r.list(func(p *payout.PayoutRequest) bool { return p.OwnerID == ownerID }, filter)
	return items, total, nil
}

// ListByStatus returns requests across all owners, most recent first
func (r *PayoutRequestRepository) ListByStatus(_ context.Context, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64, error) {
	items, total := r.list(func(*payout.PayoutRequest) bool { return true }, filter)
	return items, total, nil
}

func matches(p *payout.PayoutRequest, filter payout.PayoutRequestFilter) bool {
	if filter.Status != nil && p.Status != *filter.Status {
		return false
	}
	if filter.PropertyID != nil && (p.PropertyID == nil || *p.PropertyID != *filter.PropertyID) {
		return false
	}
	return true
}

func (r *PayoutRequestRepository) list(keep func(*payout.PayoutRequest) bool, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64) {
	r.mu.RLock()
	out := make([]payout.PayoutRequest, 0)
	for _, p := range r.requests {
		if keep(&p) && matches(&p, filter) {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].RequestDate.After(out[j].RequestDate)
	})

	f := filter.Filter.Normalize()
	start := f.Offset()
	total := int64(len(out))
	if start >= len(out) {
		return []payout.PayoutRequest{}, total
	}
	end := min(start+f.PageSize, len(out))
	return out[start:end], total
}

// Update replaces the stored request if its version is the one the caller read
func (r *PayoutRequestRepository) Update(_ context.Context, req *payout.PayoutRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[req.ID]
	if !ok {
		return shared.NotFound("Payout request", req.ID)
	}
	if stored.Version != req.Version-1 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Payout request has been modified by another user")
	}
	r.requests[req.ID] = detach(*req)
	return nil
}

// SumReserved totals in-flight requests in one read-locked pass
func (r *PayoutRequestRepository) SumReserved(_ context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, p := range r.requests {
		if p.OwnerID != ownerID || !p.IsReserved() {
			continue
		}
		if propertyID != nil && (p.PropertyID == nil || *p.PropertyID != *propertyID) {
			continue
		}
		total = total.Add(p.RequestedAmount)
	}
	return total, nil
}
