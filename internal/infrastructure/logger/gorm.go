package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig configures the gorm adapter
type GormConfig struct {
	Level string // application log level; debug and info print every statement
	// SlowThreshold flags slower statements at warn level. Zero leaves slow
	// query reporting to the tracing plugin.
	SlowThreshold time.Duration
}

// GormLogger routes gorm output through zap with the request fields of ctx
type GormLogger struct {
	logger *zap.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

// NewGormLogger creates a gorm logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, cfg GormConfig) *GormLogger {
	return &GormLogger{
		logger: zapLogger.Named("gorm"),
		level:  gormLevel(cfg.Level),
		slow:   cfg.SlowThreshold,
	}
}

func gormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		Enrich(ctx, l.logger).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		Enrich(ctx, l.logger).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		Enrich(ctx, l.logger).Sugar().Errorf(msg, data...)
	}
}

// Trace logs one statement. Missing rows are expected lookups and never logged.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent || errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slow > 0 && elapsed >= l.slow
	var msg string
	var lvl gormlogger.LogLevel
	switch {
	case err != nil:
		msg, lvl = "Statement failed", gormlogger.Error
	case slow:
		msg, lvl = "Slow statement", gormlogger.Warn
	default:
		msg, lvl = "Statement", gormlogger.Info
	}
	if l.level < lvl {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	log := Enrich(ctx, l.logger)
	switch lvl {
	case gormlogger.Error:
		log.Error(msg, append(fields, zap.Error(err))...)
	case gormlogger.Warn:
		log.Warn(msg, append(fields, zap.Duration("threshold", l.slow))...)
	default:
		log.Debug(msg, fields...)
	}
}
