package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/infrastructure/auth"
	"github.com/propertyhub/backend/internal/infrastructure/config"
	"github.com/propertyhub/backend/internal/infrastructure/logger"
)

const actorTestSecret = "actor-middleware-secret-32-chars-min"

func signActorToken(t *testing.T, userID uuid.UUID, role string, ttl time.Duration) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl))},
		UserID:           userID.String(),
		Role:             role,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(actorTestSecret))
	require.NoError(t, err)
	return s
}

func actorRouter(devHeaders bool, seen *identity.Actor, seenCtxActor *string) *gin.Engine {
	r := gin.New()
	r.Use(ActorMiddleware(ActorConfig{
		Verifier:          auth.NewTokenVerifier(config.AuthConfig{JWTSecret: actorTestSecret}),
		DevHeaderFallback: devHeaders,
	}))
	r.GET("/x", func(c *gin.Context) {
		actor, ok := GetActor(c)
		if ok {
			*seen = actor
			*seenCtxActor = logger.GetActorID(c.Request.Context())
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestActorMiddleware_BearerToken(t *testing.T) {
	var actor identity.Actor
	var ctxActor string
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+signActorToken(t, userID, "owner", time.Minute))
	w := serve(actorRouter(false, &actor, &ctxActor), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, actor.ID)
	assert.Equal(t, identity.RoleOwner, actor.Role)
	assert.Equal(t, userID.String(), ctxActor)
}

func TestActorMiddleware_Rejections(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name       string
		devHeaders bool
		headers    map[string]string
		wantCode   string
	}{
		{"no credentials", false, nil, "UNAUTHORIZED"},
		{"not bearer", false, map[string]string{AuthHeaderKey: "Basic abc"}, "UNAUTHORIZED"},
		{"expired", false, map[string]string{AuthHeaderKey: BearerPrefix + signActorToken(t, userID, "owner", -time.Minute)}, "TOKEN_EXPIRED"},
		{"dev headers disabled", false, map[string]string{DevUserHeader: userID.String(), DevRoleHeader: "admin"}, "UNAUTHORIZED"},
		{"dev headers bad id", true, map[string]string{DevUserHeader: "nope", DevRoleHeader: "admin"}, "UNAUTHORIZED"},
		{"dev headers bad role", true, map[string]string{DevUserHeader: userID.String(), DevRoleHeader: "janitor"}, "UNAUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actor identity.Actor
			var ctxActor string
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := serve(actorRouter(tt.devHeaders, &actor, &ctxActor), req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
			assert.Equal(t, uuid.Nil, actor.ID)
		})
	}
}

func TestActorMiddleware_DevHeaders(t *testing.T) {
	var actor identity.Actor
	var ctxActor string
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(DevUserHeader, userID.String())
	req.Header.Set(DevRoleHeader, "Admin")
	w := serve(actorRouter(true, &actor, &ctxActor), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, actor.IsAdmin())
	assert.Equal(t, userID, actor.ID)
}

func TestActorMiddleware_TokenWinsOverDevHeaders(t *testing.T) {
	var actor identity.Actor
	var ctxActor string
	tokenUser := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+signActorToken(t, tokenUser, "owner", time.Minute))
	req.Header.Set(DevUserHeader, uuid.NewString())
	req.Header.Set(DevRoleHeader, "admin")
	w := serve(actorRouter(true, &actor, &ctxActor), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tokenUser, actor.ID)
	assert.True(t, actor.IsOwner())
}

func TestGetActor_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetActor(c)
	assert.False(t, ok)
}
