package token

import (
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/project-portal/internal/domain"
)

// Claims describes the JWT payload carried by access and refresh tokens.
type Claims struct {
	SubjectID     string           `json:"subjectId"`
	PrincipalName string           `json:"principalName"`
	Role          domain.Role      `json:"role"`
	Kind          domain.TokenKind `json:"tokenType"`
	jwt.RegisteredClaims
}

// Identity converts the wire claims into the domain claim.
func (c *Claims) Identity() *domain.IdentityClaim {
	claim := &domain.IdentityClaim{
		SubjectID:     c.SubjectID,
		PrincipalName: c.PrincipalName,
		Role:          c.Role,
		Kind:          c.Kind,
		TokenID:       c.ID,
		Issuer:        c.Issuer,
	}
	if c.IssuedAt != nil {
		claim.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		claim.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return claim
}
