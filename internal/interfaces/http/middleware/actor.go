package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/infrastructure/auth"
	"github.com/propertyhub/backend/internal/infrastructure/logger"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
)

// Context keys and headers used for actor resolution
const (
	ActorKey      = "actor"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	DevUserHeader = "X-User-ID"
	DevRoleHeader = "X-User-Role"
	requestIDKey  = logger.GinRequestIDKey
)

var errMissingCredentials = errors.New("missing authorization header")

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// ActorConfig holds configuration for the actor middleware
type ActorConfig struct {
	Verifier TokenVerifier
	// DevHeaderFallback accepts X-User-ID / X-User-Role when no bearer token is sent.
	// Development only; config validation refuses it in production.
	DevHeaderFallback bool
	Logger            *zap.Logger
}

// ActorMiddleware resolves the calling actor and stores it on the gin context
func ActorMiddleware(cfg ActorConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		actor, err := resolveActor(c, cfg)
		if err != nil {
			log.Warn("Actor resolution failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(requestIDKey)),
			)
			code := dto.ErrCodeUnauthorized
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(code, "Authentication required: "+err.Error(), c.GetString(requestIDKey)))
			return
		}

		c.Set(ActorKey, actor)
		ctx := logger.WithActor(c.Request.Context(), actor.ID.String(), actor.Role.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveActor(c *gin.Context, cfg ActorConfig) (identity.Actor, error) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			return identity.Actor{}, auth.ErrInvalidToken
		}
		if cfg.Verifier == nil {
			return identity.Actor{}, auth.ErrInvalidToken
		}
		claims, err := cfg.Verifier.Verify(token)
		if err != nil {
			return identity.Actor{}, err
		}
		return claims.Actor()
	}

	if !cfg.DevHeaderFallback {
		return identity.Actor{}, errMissingCredentials
	}
	userID, err := uuid.Parse(c.GetHeader(DevUserHeader))
	if err != nil {
		return identity.Actor{}, auth.ErrMissingUserID
	}
	role, err := identity.ParseRole(c.GetHeader(DevRoleHeader))
	if err != nil {
		return identity.Actor{}, auth.ErrInvalidRole
	}
	return identity.NewActor(userID, role)
}

// GetActor returns the actor resolved for this request
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}
