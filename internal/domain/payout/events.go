package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

const (
	// AggregateTypePayoutRequest is the aggregate type carried by payout events
	AggregateTypePayoutRequest = "PayoutRequest"

	// EventTypePayoutTransitioned is raised on every successful workflow transition
	EventTypePayoutTransitioned = "PayoutTransitioned"
)

// PayoutTransitionedEvent is the notification/audit payload for one transition.
// FromStatus is empty for the initial request.
type PayoutTransitionedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID            `json:"request_id"`
	OwnerID    uuid.UUID            `json:"owner_id"`
	PropertyID *uuid.UUID           `json:"property_id,omitempty"`
	FromStatus PayoutStatus         `json:"from_status"`
	ToStatus   PayoutStatus         `json:"to_status"`
	Action     Action               `json:"action"`
	ActorID    uuid.UUID            `json:"actor_id"`
	Amount     decimal.Decimal      `json:"amount"`
	Currency   valueobject.Currency `json:"currency"`
}

// NewPayoutTransitionedEvent builds the event from the request's post-transition state
func NewPayoutTransitionedEvent(p *PayoutRequest, action Action, from PayoutStatus, actorID uuid.UUID, at time.Time) *PayoutTransitionedEvent {
	return &PayoutTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutTransitioned, AggregateTypePayoutRequest, p.ID, at),
		RequestID:       p.ID,
		OwnerID:         p.OwnerID,
		PropertyID:      p.PropertyID,
		FromStatus:      from,
		ToStatus:        p.Status,
		Action:          action,
		ActorID:         actorID,
		Amount:          p.RequestedAmount,
		Currency:        p.Currency,
	}
}
