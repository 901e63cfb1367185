package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing wraps otelgin, naming spans after the route pattern, and marks
// 5xx responses as span errors.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	base := otelgin.Middleware(cfg.ServiceName)
	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// SpanAttributes copies request id and actor onto the active span.
// It must run after RequestID and ActorMiddleware.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := c.GetString(requestIDKey); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if actor, ok := GetActor(c); ok {
				span.SetAttributes(
					attribute.String("actor_id", actor.ID.String()),
					attribute.String("actor_role", actor.Role.String()),
				)
			}
		}
		c.Next()
	}
}
