package payout

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

const (
	maxNotesLength     = 1000
	maxReferenceLength = 100

	// amounts are stored as DECIMAL(18,4)
	amountScale         = 4
	amountIntegerDigits = 14
)

var amountCeiling = decimal.New(1, amountIntegerDigits)

// PayoutRequest is an owner's request to withdraw part of their available
// balance. It is never deleted; rejected and completed requests stay for audit.
type PayoutRequest struct {
	shared.BaseAggregateRoot
	OwnerID          uuid.UUID
	PropertyID       *uuid.UUID // nil for a portfolio-wide request
	RequestedAmount  decimal.Decimal
	Currency         valueobject.Currency
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Notes            string
	Status           PayoutStatus
	RequestDate      time.Time
	ApprovalNotes    string
	ApprovedBy       *uuid.UUID
	ApprovedAt       *time.Time
	RejectedBy       *uuid.UUID
	RejectedAt       *time.Time
	RejectionReason  string
	PaymentMethod    *PaymentMethod
	PaymentReference string
	PaymentDate      *time.Time
	PaidBy           *uuid.UUID
	ConfirmedAt      *time.Time
}

// NewPayoutRequestInput carries the fields an owner submits
type NewPayoutRequestInput struct {
	OwnerID         uuid.UUID
	PropertyID      *uuid.UUID
	RequestedAmount decimal.Decimal
	Currency        valueobject.Currency
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Notes           string
}

// NewPayoutRequest validates the owner's input and creates a pending request.
// Availability against the balance is checked by the caller under the owner lock.
func NewPayoutRequest(actor identity.Actor, in NewPayoutRequestInput, at time.Time) (*PayoutRequest, error) {
	t, _ := TransitionFor(ActionRequest)
	if err := t.Authorize(actor, in.OwnerID); err != nil {
		return nil, err
	}
	if !in.RequestedAmount.IsPositive() {
		return nil, shared.InvalidAmount("Requested amount must be greater than zero")
	}
	if !in.RequestedAmount.Equal(in.RequestedAmount.Truncate(amountScale)) {
		return nil, shared.InvalidAmount("Requested amount cannot have more than 4 decimal places")
	}
	if in.RequestedAmount.GreaterThanOrEqual(amountCeiling) {
		return nil, shared.InvalidAmount("Requested amount cannot exceed 14 integer digits")
	}
	if in.Currency == "" {
		return nil, shared.ValidationError("Currency is required")
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return nil, shared.ValidationError("Period start and end are required")
	}
	if in.PeriodEnd.Before(in.PeriodStart) {
		return nil, shared.ValidationError("Period end cannot be before period start")
	}
	if len(in.Notes) > maxNotesLength {
		return nil, shared.ValidationError("Notes cannot exceed 1000 characters")
	}

	req := &PayoutRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(at),
		OwnerID:           in.OwnerID,
		PropertyID:        in.PropertyID,
		RequestedAmount:   in.RequestedAmount,
		Currency:          in.Currency,
		PeriodStart:       in.PeriodStart,
		PeriodEnd:         in.PeriodEnd,
		Notes:             strings.TrimSpace(in.Notes),
		Status:            StatusPending,
		RequestDate:       at,
	}

	req.AddDomainEvent(NewPayoutTransitionedEvent(req, ActionRequest, "", actor.ID, at))
	return req, nil
}

// Approve moves a pending request to approved
func (p *PayoutRequest) Approve(actor identity.Actor, notes string, at time.Time) error {
	t, err := Guard(ActionApprove, actor, p)
	if err != nil {
		return err
	}
	if len(notes) > maxNotesLength {
		return shared.ValidationError("Approval notes cannot exceed 1000 characters")
	}

	p.ApprovedBy = &actor.ID
	p.ApprovedAt = &at
	p.ApprovalNotes = strings.TrimSpace(notes)
	p.apply(t, actor, at)
	return nil
}

// Reject moves a pending request to the terminal rejected state. The reserved
// amount is released because rejected requests are not counted as pending.
func (p *PayoutRequest) Reject(actor identity.Actor, reason string, at time.Time) error {
	t, err := Guard(ActionReject, actor, p)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.ValidationError("Rejection reason is required")
	}
	if len(reason) > maxNotesLength {
		return shared.ValidationError("Rejection reason cannot exceed 1000 characters")
	}

	p.RejectedBy = &actor.ID
	p.RejectedAt = &at
	p.RejectionReason = reason
	p.apply(t, actor, at)
	return nil
}

// MarkPaid records that an administrator sent the money
func (p *PayoutRequest) MarkPaid(actor identity.Actor, method PaymentMethod, reference string, at time.Time) error {
	t, err := Guard(ActionMarkPaid, actor, p)
	if err != nil {
		return err
	}
	if method == "" {
		return shared.ValidationError("Payment method is required")
	}
	if !method.IsValid() {
		return shared.ValidationError("Payment method must be one of: bank_transfer, check, cash, paypal, wire, other")
	}
	reference = strings.TrimSpace(reference)
	if len(reference) > maxReferenceLength {
		return shared.ValidationError("Payment reference cannot exceed 100 characters")
	}

	p.PaymentMethod = &method
	p.PaymentReference = reference
	p.PaymentDate = &at
	p.PaidBy = &actor.ID
	p.apply(t, actor, at)
	return nil
}

// ConfirmReceived is the owner's acknowledgement; the request becomes immutable
func (p *PayoutRequest) ConfirmReceived(actor identity.Actor, at time.Time) error {
	t, err := Guard(ActionConfirmReceived, actor, p)
	if err != nil {
		return err
	}

	p.ConfirmedAt = &at
	p.apply(t, actor, at)
	return nil
}

func (p *PayoutRequest) apply(t Transition, actor identity.Actor, at time.Time) {
	from := p.Status
	p.Status = t.To
	p.Touch(at)
	p.IncrementVersion()
	p.AddDomainEvent(NewPayoutTransitionedEvent(p, t.Action, from, actor.ID, at))
}

// IsReserved returns true while the requested amount still reserves funds
func (p *PayoutRequest) IsReserved() bool {
	return p.Status.IsReserved()
}
