package token

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/project-portal/internal/domain"
)

// ExpiringSoonWindow is the remaining lifetime below which a token should
// be refreshed proactively.
const ExpiringSoonWindow = time.Hour

// Decode reads a token's claim without checking its signature. Clients use
// it for local state only; they never hold the signing secret.
func Decode(tokenStr string) (*domain.IdentityClaim, error) {
	claims, err := decodeClaims(tokenStr)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

// IsExpiringSoon reports whether the token has less than an hour left.
func IsExpiringSoon(tokenStr string) bool {
	return ExpiringSoonAt(tokenStr, time.Now())
}

// ExpiringSoonAt is IsExpiringSoon evaluated at now. Undecodable tokens and
// tokens without an expiry count as expiring.
func ExpiringSoonAt(tokenStr string, now time.Time) bool {
	claims, err := decodeClaims(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(now) < ExpiringSoonWindow
}

// IsExpiringSoon evaluates the expiring-soon check against the codec clock.
func (c *Codec) IsExpiringSoon(tokenStr string) bool {
	return ExpiringSoonAt(tokenStr, c.clock.Now())
}

func decodeClaims(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
