package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/infrastructure/config"
	"github.com/propertyhub/backend/internal/infrastructure/lock"
	"github.com/propertyhub/backend/internal/infrastructure/logger"
	"github.com/propertyhub/backend/internal/infrastructure/persistence"
	"github.com/propertyhub/backend/internal/infrastructure/persistence/memory"
	"github.com/propertyhub/backend/internal/infrastructure/persistence/models"
	"github.com/propertyhub/backend/internal/infrastructure/redisconn"
	"github.com/propertyhub/backend/internal/infrastructure/telemetry"
	"github.com/propertyhub/backend/internal/interfaces/http/handler"
)

// storage bundles the repositories behind the configured driver
type storage struct {
	owners  identity.OwnerDirectory
	entries finance.FinanceEntryReader
	payouts payout.PayoutRequestRepository
	db      *persistence.Database // nil for the memory driver
}

// openStorage selects gorm-backed repositories, or in-memory ones for the
// memory driver. The memory driver starts empty and is meant for local runs.
func openStorage(cfg *config.Config, log *zap.Logger) (*storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory storage; data is lost on restart")
		return &storage{
			owners:  memory.NewOwnerDirectory(),
			entries: memory.NewFinanceEntryStore(),
			payouts: memory.NewPayoutRequestRepository(),
		}, nil
	}

	dbTracing := cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing
	gormLog := logger.GormConfig{Level: cfg.Log.Level, SlowThreshold: cfg.Telemetry.SlowQueryThresh}
	if dbTracing {
		gormLog.SlowThreshold = 0
	}
	db, err := persistence.NewDatabase(&cfg.Database, log, gormLog)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		// Schema for production is owned by cmd/migrate; this is for sqlite and tests.
		if err := db.DB.AutoMigrate(&models.OwnerModel{}, &models.FinanceEntryModel{}, &models.PayoutRequestModel{}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         dbTracing,
		SlowQueryThresh: cfg.Telemetry.SlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := tracing.Register(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register database tracing: %w", err)
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	return &storage{
		owners:  persistence.NewGormOwnerDirectory(db.DB),
		entries: persistence.NewGormFinanceEntryReader(db.DB),
		payouts: persistence.NewGormPayoutRequestRepository(db.DB),
		db:      db,
	}, nil
}

func (s *storage) close(log *zap.Logger) {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
}

// openRedis connects only when a component needs Redis; it returns nil otherwise
func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Lock.Backend != config.LockBackendRedis && !cfg.Notification.Enabled {
		return nil, nil
	}
	return redisconn.NewClient(ctx, redisconn.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newOwnerLocker(cfg *config.Config, client *redis.Client, log *zap.Logger) shared.OwnerLocker {
	if cfg.Lock.Backend == config.LockBackendRedis {
		return lock.NewRedisLocker(client, lock.RedisLockerConfig{
			KeyPrefix:      cfg.Lock.KeyPrefix,
			TTL:            cfg.Lock.TTL,
			AcquireTimeout: cfg.Lock.AcquireTimeout,
			RetryInterval:  cfg.Lock.RetryInterval,
		}, log)
	}
	return lock.NewKeyedMutex()
}

func healthChecks(s *storage, client *redis.Client) []handler.HealthCheck {
	var checks []handler.HealthCheck
	if s.db != nil {
		checks = append(checks, handler.HealthCheckFunc{
			CheckName: "database",
			Fn:        func(context.Context) error { return s.db.Ping() },
		})
	}
	if client != nil {
		checks = append(checks, handler.HealthCheckFunc{
			CheckName: "redis",
			Fn:        func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	return checks
}
