package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-123")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/owners/:id/balance", func(c *gin.Context) {
		// handlers see the request-scoped logger through the context
		assert.Equal(t, "req-123", GetRequestID(c.Request.Context()))
		FromContext(c.Request.Context()).Info("inside handler")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/owners/abc/balance?from=2026-01-01", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	inside := recorded.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "req-123", inside[0].ContextMap()["request_id"])

	requests := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, requests, 1)
	fields := requests[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, "from=2026-01-01", fields["query"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	requests = recorded.FilterMessage("HTTP Request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zapcore.WarnLevel, requests[1].Level)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("lock table corrupted")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	require.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}
