package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
)

// AuditLogHandler writes one structured log line per payout transition
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit handler logging under the "audit" name
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return []string{payout.EventTypePayoutTransitioned}
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*payout.PayoutTransitionedEvent)
	if !ok {
		h.logger.Debug("ignoring unexpected event", zap.String("event_type", event.EventType()))
		return nil
	}

	fields := []zap.Field{
		zap.String("event_id", evt.EventID().String()),
		zap.String("payout_id", evt.RequestID.String()),
		zap.String("owner_id", evt.OwnerID.String()),
		zap.String("action", evt.Action.String()),
		zap.String("from_status", evt.FromStatus.String()),
		zap.String("to_status", evt.ToStatus.String()),
		zap.String("actor_id", evt.ActorID.String()),
		zap.String("amount", evt.Amount.String()),
		zap.String("currency", string(evt.Currency)),
		zap.Time("occurred_at", evt.OccurredAt()),
	}
	if evt.PropertyID != nil {
		fields = append(fields, zap.String("property_id", evt.PropertyID.String()))
	}
	h.logger.Info("payout transitioned", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
