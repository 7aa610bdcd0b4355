package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrSessionExpired is returned by Check for tokens past their exp claim.
var ErrSessionExpired = errors.New("session expired")

// userIDClaims are tried in order to find the account id in a token.
var userIDClaims = []string{
	"nameid",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
	"sub",
	"userId",
}

var nameClaims = []string{
	"unique_name",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
	"name",
	"email",
}

// Session is what the client can learn from a bearer token without the
// server's signing key.
type Session struct {
	UserID    string
	Name      string
	ExpiresAt time.Time
}

// Expired reports whether the session has an expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ParseSession decodes token's claims. The signature is not verified; the
// server remains the authority on validity.
func ParseSession(token string) (Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, fmt.Errorf("parsing token: %w", err)
	}

	var s Session
	s.UserID = firstString(claims, userIDClaims)
	s.Name = firstString(claims, nameClaims)

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Session{}, fmt.Errorf("reading exp claim: %w", err)
	}
	if exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

// Check parses token and fails with ErrSessionExpired when it is past its
// expiry at now.
func Check(token string, now time.Time) (Session, error) {
	s, err := ParseSession(token)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(now) {
		return s, fmt.Errorf("%w at %s", ErrSessionExpired, s.ExpiresAt.Format(time.RFC3339))
	}
	return s, nil
}

func firstString(claims jwt.MapClaims, keys []string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
