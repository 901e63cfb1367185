package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
)

// DefaultNotificationStream is the stream consumers read payout notifications from
const DefaultNotificationStream = "payout:notifications"

// StreamAdder is the subset of the redis client the notifier needs
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamNotifierConfig configures the notifier
type RedisStreamNotifierConfig struct {
	Stream string
	// MaxLen approximately caps the stream length; 0 leaves it unbounded
	MaxLen int64
}

// RedisStreamNotifier appends payout transitions to a Redis stream for
// downstream notification workers. Delivery is at-least-once from the
// consumer's point of view; a failed append is reported to the bus and
// otherwise dropped.
type RedisStreamNotifier struct {
	client StreamAdder
	cfg    RedisStreamNotifierConfig
	logger *zap.Logger
}

// NewRedisStreamNotifier creates a notifier writing to cfg.Stream
func NewRedisStreamNotifier(client StreamAdder, cfg RedisStreamNotifierConfig, logger *zap.Logger) *RedisStreamNotifier {
	if cfg.Stream == "" {
		cfg.Stream = DefaultNotificationStream
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStreamNotifier{client: client, cfg: cfg, logger: logger}
}

// EventTypes implements shared.EventHandler
func (n *RedisStreamNotifier) EventTypes() []string {
	return []string{payout.EventTypePayoutTransitioned}
}

// Handle implements shared.EventHandler
func (n *RedisStreamNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*payout.PayoutTransitionedEvent)
	if !ok {
		return nil
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal payout event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: n.cfg.Stream,
		Values: map[string]any{
			"event_id":   evt.EventID().String(),
			"event_type": evt.EventType(),
			"payout_id":  evt.RequestID.String(),
			"owner_id":   evt.OwnerID.String(),
			"to_status":  evt.ToStatus.String(),
			"payload":    string(payload),
		},
	}
	if n.cfg.MaxLen > 0 {
		args.MaxLen = n.cfg.MaxLen
		args.Approx = true
	}

	id, err := n.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("append to stream %s: %w", n.cfg.Stream, err)
	}
	n.logger.Debug("payout notification queued",
		zap.String("stream", n.cfg.Stream),
		zap.String("entry_id", id),
		zap.String("payout_id", evt.RequestID.String()),
	)
	return nil
}

var _ shared.EventHandler = (*RedisStreamNotifier)(nil)
