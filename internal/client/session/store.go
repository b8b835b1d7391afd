// Package session keeps the client's token pair and answers authentication
// questions from it without network calls.
package session

import (
	"fmt"

	"github.com/spec-kit/project-portal/internal/client/storage"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/token"
)

// Storage keys of the token pair.
const (
	AccessTokenKey  = "portal.accessToken"
	RefreshTokenKey = "portal.refreshToken"
)

// Store reads and writes the token pair. Tokens are decoded, never verified:
// the client does not hold the signing secret, and the server re-verifies on
// every protected request.
type Store struct {
	storage storage.Storage
	clock   domain.Clock
}

// NewStore wraps a storage backend.
func NewStore(s storage.Storage, clock domain.Clock) *Store {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Store{storage: s, clock: clock}
}

// Store saves both tokens of pair.
func (s *Store) Store(pair domain.TokenPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return fmt.Errorf("%w: token pair incomplete", domain.ErrInvalidInput)
	}
	if err := s.storage.Set(AccessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.storage.Set(RefreshTokenKey, pair.RefreshToken); err != nil {
		_ = s.storage.Delete(AccessTokenKey)
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Clear removes the token pair.
func (s *Store) Clear() error {
	return s.storage.Delete(AccessTokenKey, RefreshTokenKey)
}

// AccessToken returns the stored access token.
func (s *Store) AccessToken() (string, bool) {
	return s.get(AccessTokenKey)
}

// RefreshToken returns the stored refresh token.
func (s *Store) RefreshToken() (string, bool) {
	return s.get(RefreshTokenKey)
}

// IsAuthenticated reports whether an access token is present, decodes and
// has not expired.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// CurrentUser returns the claim of the stored access token while it is
// usable.
func (s *Store) CurrentUser() (*domain.IdentityClaim, bool) {
	raw, ok := s.AccessToken()
	if !ok {
		return nil, false
	}
	claim, err := token.Decode(raw)
	if err != nil || !claim.Role.Valid() {
		return nil, false
	}
	if !s.clock.Now().Before(claim.ExpiresAt) {
		return nil, false
	}
	return claim, true
}

// NeedsRefresh reports whether the access token is absent or within the
// expiring-soon window, while a refresh token is available.
func (s *Store) NeedsRefresh() bool {
	if _, ok := s.RefreshToken(); !ok {
		return false
	}
	raw, ok := s.AccessToken()
	if !ok {
		return true
	}
	return token.ExpiringSoonAt(raw, s.clock.Now())
}

func (s *Store) get(key string) (string, bool) {
	v, ok := s.storage.Get(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
