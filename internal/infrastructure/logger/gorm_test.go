package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), GormConfig{Level: "debug", SlowThreshold: 50 * time.Millisecond})
	ctx := WithRequestID(context.Background(), "req-7")

	gl.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 1), nil)
	gl.Trace(ctx, time.Now().Add(-time.Second), sqlFunc("SELECT pg_sleep(1)", 1), nil)
	gl.Trace(ctx, time.Now(), sqlFunc("UPDATE payout_requests", 0), errors.New("deadlock detected"))
	gl.Trace(ctx, time.Now(), sqlFunc("SELECT * FROM owners", 0), gormlogger.ErrRecordNotFound)

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "Statement", entries[0].Message)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
		assert.Equal(t, "Slow statement", entries[1].Message)
		assert.Equal(t, "SELECT pg_sleep(1)", entries[1].ContextMap()["sql"])
		assert.Equal(t, "Statement failed", entries[2].Message)
		assert.Equal(t, "gorm", entries[2].LoggerName)
	}
}

func TestGormLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		cfg      GormConfig
		wantMsgs []string
	}{
		{"warn default hides plain statements", GormConfig{SlowThreshold: 50 * time.Millisecond}, []string{"Slow statement", "Statement failed"}},
		{"error only", GormConfig{Level: "error", SlowThreshold: 50 * time.Millisecond}, []string{"Statement failed"}},
		{"zero threshold never flags slow", GormConfig{Level: "warn"}, []string{"Statement failed"}},
		{"silent", GormConfig{Level: "silent", SlowThreshold: 50 * time.Millisecond}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.cfg)
			ctx := context.Background()

			gl.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 1), nil)
			gl.Trace(ctx, time.Now().Add(-time.Second), sqlFunc("SELECT pg_sleep(1)", 1), nil)
			gl.Trace(ctx, time.Now(), sqlFunc("UPDATE payout_requests", 0), errors.New("deadlock detected"))

			var got []string
			for _, e := range logs.All() {
				got = append(got, e.Message)
			}
			assert.Equal(t, tt.wantMsgs, got)
		})
	}
}

func TestGormLogger_LogMode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), GormConfig{Level: "silent"})

	gl.Warn(context.Background(), "slow migration %s", "0001")
	assert.Zero(t, logs.Len())

	loud := gl.LogMode(gormlogger.Warn)
	loud.Warn(context.Background(), "slow migration %s", "0001")
	assert.Equal(t, 1, logs.FilterMessage("slow migration 0001").Len())
}
