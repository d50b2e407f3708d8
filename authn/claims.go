package authn

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims is the subset of access-token claims the client can display.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// PeekClaims reads claims out of an access token WITHOUT verifying its
// signature. The backend is the only party that can verify; this exists for
// display and diagnostics (whoami, expiry hints) and must never feed an
// authorization decision.
func PeekClaims(rawToken string) (*Claims, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "[PeekClaims] parse token")
	}

	claims := &Claims{}
	if sub, err := token.Claims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := token.Claims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	return claims, nil
}

// Expired reports whether the token's exp claim is in the past. Tokens
// without an exp claim are treated as live, the backend has the final word
// either way.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}
