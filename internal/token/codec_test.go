package token

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/domain/domaintest"
)

var start = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newTestCodec(t *testing.T, secret string) (*Codec, *domaintest.FakeClock) {
	t.Helper()
	clock := domaintest.NewFakeClock(start)
	codec, err := NewCodec(Config{Secret: secret, Clock: clock})
	require.NoError(t, err)
	return codec, clock
}

func testInput() domain.ClaimInput {
	return domain.ClaimInput{SubjectID: "u-42", PrincipalName: "ada", Role: domain.RoleUser}
}

func claimsAt(now time.Time, ttl time.Duration) *Claims {
	return &Claims{
		SubjectID:     "u-42",
		PrincipalName: "ada",
		Role:          domain.RoleUser,
		Kind:          domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-42",
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func TestNewCodec(t *testing.T) {
	t.Run("missing secret fails fast", func(t *testing.T) {
		for _, secret := range []string{"", "   "} {
			codec, err := NewCodec(Config{Secret: secret})
			require.Error(t, err)
			assert.Nil(t, codec)
			assert.True(t, errors.Is(err, domain.ErrConfigMissing))
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		codec, err := NewCodec(Config{Secret: "s3cret"})
		require.NoError(t, err)
		assert.Equal(t, DefaultAccessTTL, codec.AccessTTL())
		assert.Equal(t, DefaultRefreshTTL, codec.RefreshTTL())
	})
}

func TestIssueAndVerify(t *testing.T) {
	codec, _ := newTestCodec(t, "s3cret")

	pair, err := codec.Issue(testInput())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, start.Add(24*time.Hour), pair.AccessExpiresAt)
	assert.Equal(t, start.Add(7*24*time.Hour), pair.RefreshExpiresAt)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	t.Run("access token round trips", func(t *testing.T) {
		claim, err := codec.Verify(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u-42", claim.SubjectID)
		assert.Equal(t, "ada", claim.PrincipalName)
		assert.Equal(t, domain.RoleUser, claim.Role)
		assert.Equal(t, Issuer, claim.Issuer)
		assert.Equal(t, domain.TokenKindAccess, claim.Kind)
		assert.NotEmpty(t, claim.TokenID)
		assert.Equal(t, 24*time.Hour, claim.ExpiresAt.Sub(claim.IssuedAt))
	})

	t.Run("refresh token round trips", func(t *testing.T) {
		claim, err := codec.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "u-42", claim.SubjectID)
		assert.Equal(t, domain.TokenKindRefresh, claim.Kind)
		assert.Equal(t, 7*24*time.Hour, claim.ExpiresAt.Sub(claim.IssuedAt))
	})

	t.Run("kinds are not interchangeable", func(t *testing.T) {
		_, err := codec.Verify(pair.RefreshToken)
		assert.True(t, errors.Is(err, domain.ErrTokenInvalid))

		_, err = codec.VerifyRefresh(pair.AccessToken)
		assert.True(t, errors.Is(err, domain.ErrTokenInvalid))
	})

	t.Run("every role round trips", func(t *testing.T) {
		for _, role := range domain.Roles() {
			in := testInput()
			in.Role = role
			p, err := codec.Issue(in)
			require.NoError(t, err)
			claim, err := codec.Verify(p.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, role, claim.Role)
		}
	})
}

func TestIssueRejectsBadInput(t *testing.T) {
	codec, _ := newTestCodec(t, "s3cret")

	_, err := codec.Issue(domain.ClaimInput{SubjectID: "u-1", Role: "root"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = codec.Issue(domain.ClaimInput{Role: domain.RoleAdmin})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestVerifyExpiry(t *testing.T) {
	codec, clock := newTestCodec(t, "s3cret")
	pair, err := codec.Issue(testInput())
	require.NoError(t, err)

	t.Run("valid one second before expiry", func(t *testing.T) {
		clock.Set(start.Add(24*time.Hour - time.Second))
		_, err := codec.Verify(pair.AccessToken)
		require.NoError(t, err)
	})

	t.Run("expired at exactly exp", func(t *testing.T) {
		clock.Set(start.Add(24 * time.Hour))
		_, err := codec.Verify(pair.AccessToken)
		assert.True(t, errors.Is(err, domain.ErrTokenExpired))
	})

	t.Run("expired after exp", func(t *testing.T) {
		clock.Set(start.Add(48 * time.Hour))
		_, err := codec.Verify(pair.AccessToken)
		assert.True(t, errors.Is(err, domain.ErrTokenExpired))
	})

	t.Run("expired regardless of signature", func(t *testing.T) {
		clock.Set(start)
		foreign, _ := newTestCodec(t, "another-secret")
		other, err := foreign.Issue(testInput())
		require.NoError(t, err)

		clock.Set(start.Add(25 * time.Hour))
		_, err = codec.Verify(other.AccessToken)
		assert.True(t, errors.Is(err, domain.ErrTokenExpired))
	})
}

func TestVerifyRejectsForeignOrBrokenTokens(t *testing.T) {
	codec, _ := newTestCodec(t, "s3cret")
	foreign, _ := newTestCodec(t, "another-secret")

	good, err := codec.Issue(testInput())
	require.NoError(t, err)
	other, err := foreign.Issue(testInput())
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claimsAt(start, time.Hour)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage segments", "abc.def.ghi"},
		{"truncated", good.AccessToken[:len(good.AccessToken)-6]},
		{"two segments", "abc.def"},
		{"signed with another secret", other.AccessToken},
		{"alg none", noneSigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim, err := codec.Verify(tt.token)
			require.Error(t, err)
			assert.Nil(t, claim)
			assert.True(t, errors.Is(err, domain.ErrTokenMalformed), "got %v", err)
		})
	}
}

func TestVerifyInvalidClaims(t *testing.T) {
	codec, _ := newTestCodec(t, "s3cret")

	tests := []struct {
		name   string
		mutate func(c *Claims)
	}{
		{"issuer mismatch", func(c *Claims) { c.Issuer = "someone-else" }},
		{"unknown role", func(c *Claims) { c.Role = "root" }},
		{"missing subject", func(c *Claims) { c.SubjectID = "" }},
		{"issued in the future", func(c *Claims) {
			c.IssuedAt = jwt.NewNumericDate(start.Add(2 * time.Hour))
			c.ExpiresAt = jwt.NewNumericDate(start.Add(3 * time.Hour))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := claimsAt(start, time.Hour)
			tt.mutate(claims)
			signed, err := codec.signClaims(claims)
			require.NoError(t, err)

			claim, err := codec.Verify(signed)
			require.Error(t, err)
			assert.Nil(t, claim)
			assert.True(t, errors.Is(err, domain.ErrTokenInvalid), "got %v", err)
		})
	}
}
