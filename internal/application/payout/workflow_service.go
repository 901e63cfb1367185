package payout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
	"github.com/propertyhub/backend/internal/infrastructure/telemetry"
)

// BalanceComputer is the slice of the balance service the workflow depends on
type BalanceComputer interface {
	ComputeBalance(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (*finance.Balance, error)
}

// WorkflowService drives payout requests through their lifecycle. Every
// mutation runs under the owner's lock so the availability check on request
// cannot interleave with another transition for the same owner.
type WorkflowService struct {
	repo      payout.PayoutRequestRepository
	balances  BalanceComputer
	locker    shared.OwnerLocker
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
	metrics   *telemetry.PayoutMetrics
}

// WorkflowServiceConfig holds the collaborators of WorkflowService
type WorkflowServiceConfig struct {
	Repository     payout.PayoutRequestRepository
	Balances       BalanceComputer
	Locker         shared.OwnerLocker
	EventPublisher shared.EventPublisher
	Clock          shared.Clock
	Logger         *zap.Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(cfg WorkflowServiceConfig) *WorkflowService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &WorkflowService{
		repo:      cfg.Repository,
		balances:  cfg.Balances,
		locker:    cfg.Locker,
		publisher: cfg.EventPublisher,
		clock:     clock,
		logger:    logger,
	}
}

// SetPayoutMetrics sets the payout metrics collector
func (s *WorkflowService) SetPayoutMetrics(pm *telemetry.PayoutMetrics) {
	s.metrics = pm
}

// RequestPayout admits a new pending request if it fits the owner's available
// balance. The balance is always the owner-level aggregate; a property id on
// the request only tags it.
func (s *WorkflowService) RequestPayout(ctx context.Context, actor identity.Actor, in RequestPayoutInput) (_ *PayoutResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", payout.ActionRequest.String(),
		attribute.String(telemetry.SpanAttrOwnerID, in.OwnerID.String()),
		attribute.String(telemetry.SpanAttrActorID, actor.ID.String()),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	requestRow, _ := payout.TransitionFor(payout.ActionRequest)
	if err = requestRow.Authorize(actor, in.OwnerID); err != nil {
		return nil, err
	}
	if !in.RequestedAmount.IsPositive() {
		return nil, shared.InvalidAmount("Requested amount must be greater than zero")
	}
	currency, err := valueobject.ParseCurrency(in.Currency)
	if err != nil {
		return nil, shared.ValidationError("Currency must be a three-letter ISO 4217 code")
	}

	var created *payout.PayoutRequest
	err = s.locker.WithOwnerLock(ctx, in.OwnerID, func(ctx context.Context) error {
		req, err := payout.NewPayoutRequest(actor, payout.NewPayoutRequestInput{
			OwnerID:         in.OwnerID,
			PropertyID:      in.PropertyID,
			RequestedAmount: in.RequestedAmount,
			Currency:        currency,
			PeriodStart:     in.PeriodStart,
			PeriodEnd:       in.PeriodEnd,
			Notes:           in.Notes,
		}, s.clock.Now())
		if err != nil {
			return err
		}

		balance, err := s.balances.ComputeBalance(ctx, in.OwnerID, nil)
		if err != nil {
			return err
		}
		if req.Currency != balance.Currency {
			return shared.CurrencyMismatch(string(balance.Currency), string(req.Currency))
		}
		if !balance.CanCover(req.RequestedAmount) {
			return shared.InvalidAmount(fmt.Sprintf("Requested amount %s exceeds available balance %s",
				req.RequestedAmount.String(), balance.AvailableBalance.String()))
		}

		if err := s.repo.Create(ctx, req); err != nil {
			return fmt.Errorf("create payout request: %w", err)
		}
		created = req
		return nil
	})
	if err != nil {
		if s.metrics != nil && shared.ErrorCode(err) != "" {
			s.metrics.RecordRefused(ctx, payout.ActionRequest.String(), shared.ErrorCode(err))
		}
		return nil, err
	}

	s.logger.Info("Payout requested",
		zap.String("payout_id", created.ID.String()),
		zap.String("owner_id", created.OwnerID.String()),
		zap.String("amount", created.RequestedAmount.String()),
		zap.String("currency", string(created.Currency)),
	)
	if s.metrics != nil {
		s.metrics.RecordRequestedAmount(ctx, string(created.Currency), created.RequestedAmount)
	}
	s.publishEvents(ctx, created)

	resp := ToPayoutResponse(created, actor)
	return &resp, nil
}

// Approve moves a pending request to approved
func (s *WorkflowService) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, notes string) (*PayoutResponse, error) {
	return s.transition(ctx, actor, id, payout.ActionApprove, func(p *payout.PayoutRequest) error {
		return p.Approve(actor, notes, s.clock.Now())
	})
}

// Reject moves a pending request to rejected; reason is required
func (s *WorkflowService) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*PayoutResponse, error) {
	return s.transition(ctx, actor, id, payout.ActionReject, func(p *payout.PayoutRequest) error {
		return p.Reject(actor, reason, s.clock.Now())
	})
}

// MarkPaid records the payment of an approved request
func (s *WorkflowService) MarkPaid(ctx context.Context, actor identity.Actor, id uuid.UUID, method, reference string) (*PayoutResponse, error) {
	return s.transition(ctx, actor, id, payout.ActionMarkPaid, func(p *payout.PayoutRequest) error {
		return p.MarkPaid(actor, payout.PaymentMethod(method), reference, s.clock.Now())
	})
}

// ConfirmReceived completes a paid request on behalf of its owner
func (s *WorkflowService) ConfirmReceived(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PayoutResponse, error) {
	return s.transition(ctx, actor, id, payout.ActionConfirmReceived, func(p *payout.PayoutRequest) error {
		return p.ConfirmReceived(actor, s.clock.Now())
	})
}

func (s *WorkflowService) transition(ctx context.Context, actor identity.Actor, id uuid.UUID, action payout.Action, apply func(*payout.PayoutRequest) error) (_ *PayoutResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", action.String(),
		attribute.String(telemetry.SpanAttrPayoutID, id.String()),
		attribute.String(telemetry.SpanAttrActorID, actor.ID.String()),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	// The owner id is immutable, so reading it before locking is safe.
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *payout.PayoutRequest
	err = s.locker.WithOwnerLock(ctx, current.OwnerID, func(ctx context.Context) error {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(p); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if s.metrics != nil && shared.ErrorCode(err) != "" {
			s.metrics.RecordRefused(ctx, action.String(), shared.ErrorCode(err))
		}
		s.logger.Debug("Payout transition refused",
			zap.String("payout_id", id.String()),
			zap.String("action", action.String()),
			zap.String("actor_id", actor.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Payout transitioned",
		zap.String("payout_id", updated.ID.String()),
		zap.String("action", action.String()),
		zap.String("status", updated.Status.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	s.publishEvents(ctx, updated)

	resp := ToPayoutResponse(updated, actor)
	return &resp, nil
}

// publishEvents hands pending events to the notification hook. Delivery is
// best-effort; a failure is logged and the transition stands.
func (s *WorkflowService) publishEvents(ctx context.Context, p *payout.PayoutRequest) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()

	for _, evt := range events {
		if e, ok := evt.(*payout.PayoutTransitionedEvent); ok && s.metrics != nil {
			s.metrics.RecordTransition(ctx, e.Action.String(), e.ToStatus.String())
		}
	}
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish payout events",
			zap.String("payout_id", p.ID.String()),
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// GetPayout returns one request. Owners may only read their own.
func (s *WorkflowService) GetPayout(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PayoutResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(p.OwnerID) {
		return nil, shared.PermissionDenied("Owners can only view their own payout requests")
	}
	resp := ToPayoutResponse(p, actor)
	return &resp, nil
}

// ListOwnerPayouts returns the owner's payout history, most recent first
func (s *WorkflowService) ListOwnerPayouts(ctx context.Context, actor identity.Actor, ownerID uuid.UUID, filter ListPayoutsFilter) (*shared.Paginated[PayoutResponse], error) {
	if !actor.CanView(ownerID) {
		return nil, shared.PermissionDenied("Owners can only view their own payout requests")
	}
	f, err := toDomainFilter(filter)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.ListForOwner(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list payouts for owner: %w", err)
	}
	page := shared.NewPaginated(ToPayoutResponses(items, actor), total, f.Page, f.PageSize)
	return &page, nil
}

// ListPayoutQueue returns requests across all owners for administrators
func (s *WorkflowService) ListPayoutQueue(ctx context.Context, actor identity.Actor, filter ListPayoutsFilter) (*shared.Paginated[PayoutResponse], error) {
	if !actor.IsAdmin() {
		return nil, shared.PermissionDenied("Only admin users can view the payout queue")
	}
	f, err := toDomainFilter(filter)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.ListByStatus(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list payout queue: %w", err)
	}
	page := shared.NewPaginated(ToPayoutResponses(items, actor), total, f.Page, f.PageSize)
	return &page, nil
}

// AllowedActions lists what the actor may do next with the request
func (s *WorkflowService) AllowedActions(p *payout.PayoutRequest, actor identity.Actor) []payout.Action {
	return payout.AllowedActions(p, actor)
}

func toDomainFilter(filter ListPayoutsFilter) (payout.PayoutRequestFilter, error) {
	f := payout.PayoutRequestFilter{
		Filter:     shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize(),
		PropertyID: filter.PropertyID,
	}
	if filter.Status != "" {
		status, ok := payout.ParseStatus(filter.Status)
		if !ok {
			return f, shared.ValidationError("Unknown payout status: " + filter.Status)
		}
		f.Status = &status
	}
	return f, nil
}
