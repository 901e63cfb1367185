package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/payout"
)

// RequestPayoutInput represents an owner's payout request
type RequestPayoutInput struct {
	OwnerID         uuid.UUID
	PropertyID      *uuid.UUID
	RequestedAmount decimal.Decimal
	Currency        string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Notes           string
}

// ListPayoutsFilter defines filtering options for payout list queries
type ListPayoutsFilter struct {
	PropertyID *uuid.UUID
	Status     string
	Page       int
	PageSize   int
}

// PayoutResponse represents a payout request in API responses
type PayoutResponse struct {
	ID               uuid.UUID       `json:"id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	PropertyID       *uuid.UUID      `json:"property_id,omitempty"`
	RequestedAmount  decimal.Decimal `json:"requested_amount"`
	Currency         string          `json:"currency"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	Notes            string          `json:"notes,omitempty"`
	Status           string          `json:"status"`
	RequestDate      time.Time       `json:"request_date"`
	ApprovalNotes    string          `json:"approval_notes,omitempty"`
	ApprovedBy       *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	RejectedBy       *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt       *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason  string          `json:"rejection_reason,omitempty"`
	PaymentMethod    *string         `json:"payment_method,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
	PaidBy           *uuid.UUID      `json:"paid_by,omitempty"`
	ConfirmedAt      *time.Time      `json:"confirmed_at,omitempty"`
	AllowedActions   []string        `json:"allowed_actions"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// ToPayoutResponse converts a payout request to its API shape. AllowedActions
// is computed for the viewing actor.
func ToPayoutResponse(p *payout.PayoutRequest, viewer identity.Actor) PayoutResponse {
	resp := PayoutResponse{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		PropertyID:       p.PropertyID,
		RequestedAmount:  p.RequestedAmount,
		Currency:         string(p.Currency),
		PeriodStart:      p.PeriodStart,
		PeriodEnd:        p.PeriodEnd,
		Notes:            p.Notes,
		Status:           p.Status.String(),
		RequestDate:      p.RequestDate,
		ApprovalNotes:    p.ApprovalNotes,
		ApprovedBy:       p.ApprovedBy,
		ApprovedAt:       p.ApprovedAt,
		RejectedBy:       p.RejectedBy,
		RejectedAt:       p.RejectedAt,
		RejectionReason:  p.RejectionReason,
		PaymentReference: p.PaymentReference,
		PaymentDate:      p.PaymentDate,
		PaidBy:           p.PaidBy,
		ConfirmedAt:      p.ConfirmedAt,
		AllowedActions:   make([]string, 0, 2),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
	if p.PaymentMethod != nil {
		method := p.PaymentMethod.String()
		resp.PaymentMethod = &method
	}
	for _, a := range payout.AllowedActions(p, viewer) {
		resp.AllowedActions = append(resp.AllowedActions, a.String())
	}
	return resp
}

// ToPayoutResponses converts a page of payout requests
func ToPayoutResponses(items []payout.PayoutRequest, viewer identity.Actor) []PayoutResponse {
	out := make([]PayoutResponse, len(items))
	for i := range items {
		out[i] = ToPayoutResponse(&items[i], viewer)
	}
	return out
}
