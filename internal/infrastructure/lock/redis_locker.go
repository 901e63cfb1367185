package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/shared"
)

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the lease expiry out while we still hold it
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// errLeaseLost is returned when the lease could not be kept while fn ran
var errLeaseLost = shared.NewDomainError(shared.CodeLockTimeout, "Owner lock lease was lost")

// RedisLockerConfig holds settings for RedisLocker
type RedisLockerConfig struct {
	KeyPrefix      string        // Default: "payout:owner-lock:"
	TTL            time.Duration // Lock lease; Default: 10s
	AcquireTimeout time.Duration // Max wait for the lock; Default: 5s
	RetryInterval  time.Duration // Poll interval while waiting; Default: 25ms
}

// RedisLocker serializes owner work across service instances with a
// SET NX PX lease. The lease is renewed every TTL/3 while fn runs; if a
// renewal finds the lease gone, fn's context is cancelled.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisLockerConfig
	logger *zap.Logger
}

// NewRedisLocker creates a RedisLocker on an existing client
func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig, logger *zap.Logger) *RedisLocker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "payout:owner-lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WithOwnerLock acquires the owner's lease, runs fn and releases the lease.
// Failing to acquire within AcquireTimeout returns LOCK_TIMEOUT. Losing the
// lease cancels fn's context, and a failed fn is then reported as LOCK_TIMEOUT.
func (l *RedisLocker) WithOwnerLock(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context) error) error {
	key := l.cfg.KeyPrefix + ownerID.String()
	token, err := newToken()
	if err != nil {
		return fmt.Errorf("generate lock token: %w", err)
	}

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer func() {
		// release with a fresh context so a cancelled request still frees the lease
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Failed to release owner lock",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err),
			)
		}
	}()

	fnCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := make(chan struct{})
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)
		l.keepAlive(fnCtx, key, token, stop, cancel)
	}()

	err = fn(fnCtx)
	close(stop)
	<-renewed

	if errors.Is(context.Cause(fnCtx), errLeaseLost) {
		l.logger.Error("Owner lock lease lost while holding it",
			zap.String("owner_id", ownerID.String()),
			zap.NamedError("fn_error", err),
		)
		if err != nil {
			return errLeaseLost
		}
	}
	return err
}

// keepAlive renews the lease until stop is closed. A renewal that finds the
// key gone or owned by someone else cancels the holder with errLeaseLost.
func (l *RedisLocker) keepAlive(ctx context.Context, key, token string, stop <-chan struct{}, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(l.cfg.TTL / 3)
	defer ticker.Stop()
	expiry := time.Now().Add(l.cfg.TTL)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		renewCtx, done := context.WithTimeout(context.Background(), l.cfg.TTL/3)
		kept, err := extendScript.Run(renewCtx, l.client, []string{key}, token, l.cfg.TTL.Milliseconds()).Int64()
		done()
		switch {
		case err == nil && kept == 1:
			expiry = time.Now().Add(l.cfg.TTL)
		case err == nil:
			cancel(errLeaseLost)
			return
		case time.Now().After(expiry):
			// Redis stayed unreachable past the last known expiry
			cancel(errLeaseLost)
			return
		default:
			l.logger.Warn("Failed to renew owner lock, retrying", zap.String("key", key), zap.Error(err))
		}
	}
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.AcquireTimeout)
	defer cancel()

	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.cfg.TTL).Result()
		if err == nil && ok {
			return nil
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("acquire owner lock: %w", err)
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return shared.ErrLockTimeout
		}
	}
}

var _ shared.OwnerLocker = (*RedisLocker)(nil)
