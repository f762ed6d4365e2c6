package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is what the client can read out of the backend's session
// token. Verification belongs to the backend: the client only introspects
// the payload to know who is logged in and when the session lapses.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// IntrospectToken parses a JWT without verifying its signature.
// The signing key lives server-side; a client-side parse is for display
// and expiry checks only, never for trust decisions.
func IntrospectToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Expired reports whether the claims carry an expiry in the past.
// A token without an expiry never reads as expired.
func (c *SessionClaims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(now)
}
