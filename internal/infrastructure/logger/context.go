package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	actorIDKey   contextKey = "actor_id"
	actorRoleKey contextKey = "actor_role"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request id in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithActor stores the acting user's id and role in ctx
func WithActor(ctx context.Context, actorID, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, actorID)
	return context.WithValue(ctx, actorRoleKey, role)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetActorID retrieves the acting user's id from context
func GetActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey).(string)
	return id
}

// L returns the context's logger enriched with trace_id, span_id,
// request_id and actor fields when they are present.
//
//	logger.L(ctx).Info("payout approved", zap.String("payout_id", id))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds the correlation fields carried by ctx to l
func Enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	fields := make([]zap.Field, 0, 5)

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if actorID := GetActorID(ctx); actorID != "" {
		fields = append(fields, zap.String("actor_id", actorID))
	}
	if role, _ := ctx.Value(actorRoleKey).(string); role != "" {
		fields = append(fields, zap.String("actor_role", role))
	}

	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
