package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-portal/internal/domain"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.Role
		wantErr bool
	}{
		{"admin", domain.RoleAdmin, false},
		{"user", domain.RoleUser, false},
		{"guest", domain.RoleGuest, false},
		{"ADMIN", "", true},
		{"", "", true},
		{"superuser", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := domain.ParseRole(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRolesAreValid(t *testing.T) {
	for _, role := range domain.Roles() {
		assert.True(t, role.Valid(), "role %q", role)
	}
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, domain.IsTokenError(domain.ErrTokenExpired))
	assert.True(t, domain.IsTokenError(domain.ErrTokenMalformed))
	assert.True(t, domain.IsTokenError(domain.ErrTokenInvalid))
	assert.False(t, domain.IsTokenError(domain.ErrAuthHeaderAbsent))

	assert.False(t, domain.NeedsReauthentication(domain.ErrTokenExpired), "expired tokens are refreshable")
	assert.True(t, domain.NeedsReauthentication(domain.ErrTokenMalformed))
	assert.True(t, domain.NeedsReauthentication(domain.ErrTokenInvalid))
	assert.True(t, domain.NeedsReauthentication(domain.ErrAuthHeaderAbsent))
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, domain.RoleAdmin.AtLeast(domain.RoleUser))
	assert.True(t, domain.RoleUser.AtLeast(domain.RoleUser))
	assert.True(t, domain.RoleGuest.AtLeast(domain.RoleGuest))
	assert.False(t, domain.RoleGuest.AtLeast(domain.RoleUser))
	assert.False(t, domain.RoleUser.AtLeast(domain.RoleAdmin))
	assert.False(t, domain.Role("root").AtLeast(domain.RoleGuest))
}
