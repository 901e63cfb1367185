package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	SlowQueryThresh time.Duration // queries slower than this are flagged and logged
	DBName          string
	// TracerProvider overrides the global provider; tests use it with a span recorder.
	TracerProvider trace.TracerProvider
}

// DBTracingPlugin registers otelgorm spans plus slow query detection on a gorm DB.
// Query variables never reach spans: they carry owner ids and amounts.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// Register installs the plugin. It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithoutQueryVariables()}
	if p.config.DBName != "" {
		opts = append(opts, otelgorm.WithDBName(p.config.DBName))
	}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// otelgorm's after hooks end the span and restore the parent context,
	// so slow query detection has to run ahead of them.
	cb := db.Callback()
	type step struct {
		op     string
		before error
		after  error
	}
	steps := []step{
		{"create", cb.Create().Before("gorm:create").Register("payout_timing:before_create", markQueryStart),
			cb.Create().After("gorm:create").Before("otel:after:create").Register("payout_slow_query:create", p.afterQuery)},
		{"query", cb.Query().Before("gorm:query").Register("payout_timing:before_query", markQueryStart),
			cb.Query().After("gorm:query").Before("otel:after:query").Register("payout_slow_query:query", p.afterQuery)},
		{"update", cb.Update().Before("gorm:update").Register("payout_timing:before_update", markQueryStart),
			cb.Update().After("gorm:update").Before("otel:after:update").Register("payout_slow_query:update", p.afterQuery)},
		{"row", cb.Row().Before("gorm:row").Register("payout_timing:before_row", markQueryStart),
			cb.Row().After("gorm:row").Before("otel:after:row").Register("payout_slow_query:row", p.afterQuery)},
		{"raw", cb.Raw().Before("gorm:raw").Register("payout_timing:before_raw", markQueryStart),
			cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("payout_slow_query:raw", p.afterQuery)},
	}
	for _, s := range steps {
		if err := errors.Join(s.before, s.after); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed < p.config.SlowQueryThresh {
		return
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
	p.logger.Warn("Slow query",
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows_affected", db.Statement.RowsAffected),
		zap.String("trace_id", GetTraceID(ctx)),
	)
}
