// Package auth verifies actor tokens issued by the platform's identity service.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrInvalidRole      = errors.New("missing or unknown role in claims")
)

// Claims are the actor claims carried by an access token
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Actor converts verified claims into the explicit actor passed to services
func (c *Claims) Actor() (identity.Actor, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return identity.Actor{}, fmt.Errorf("%w: %v", ErrMissingUserID, err)
	}
	role, err := identity.ParseRole(c.Role)
	if err != nil {
		return identity.Actor{}, ErrInvalidRole
	}
	return identity.NewActor(id, role)
}

// TokenVerifier validates HS256 access tokens. It never issues tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier from the auth config
func NewTokenVerifier(cfg config.AuthConfig) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}
}

// Verify parses and validates a token string and returns its claims
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := identity.ParseRole(claims.Role); err != nil {
		return nil, ErrInvalidRole
	}
	return claims, nil
}
