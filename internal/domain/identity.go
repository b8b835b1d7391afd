package domain

import "time"

// TokenKind differentiates access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ClaimInput is what a successful login hands to the token codec.
type ClaimInput struct {
	SubjectID     string
	PrincipalName string
	Role          Role
}

// IdentityClaim is the decoded payload of a session token.
type IdentityClaim struct {
	SubjectID     string    `json:"subjectId"`
	PrincipalName string    `json:"principalName"`
	Role          Role      `json:"role"`
	Kind          TokenKind `json:"tokenType"`
	TokenID       string    `json:"jti,omitempty"`
	Issuer        string    `json:"iss"`
	IssuedAt      time.Time `json:"iat"`
	ExpiresAt     time.Time `json:"exp"`
}

// Remaining returns the lifetime left at now.
func (c IdentityClaim) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// TokenPair is issued once per login or refresh and owned by the client.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	TokenType        string    `json:"tokenType"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
