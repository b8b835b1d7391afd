package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
)

// CredentialComparer checks a presented credential against the stored one.
// A mismatch is reported as domain.ErrInvalidCredentials.
type CredentialComparer interface {
	Compare(stored, presented string) error
}

// PlainComparer compares credentials byte for byte. It is the default scheme
// for stores that keep credentials unhashed.
type PlainComparer struct{}

func (PlainComparer) Compare(stored, presented string) error {
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// BcryptComparer verifies presented credentials against bcrypt hashes.
type BcryptComparer struct{}

func (BcryptComparer) Compare(stored, presented string) error {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return domain.ErrInvalidCredentials
	default:
		// A stored value that is not a bcrypt hash can never match.
		return fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
}

// NewCredentialComparer returns the comparer for a configured scheme.
func NewCredentialComparer(scheme string) (CredentialComparer, error) {
	switch scheme {
	case config.CredentialSchemePlain, "":
		return PlainComparer{}, nil
	case config.CredentialSchemeBcrypt:
		return BcryptComparer{}, nil
	default:
		return nil, fmt.Errorf("%w: credential scheme %q", domain.ErrInvalidInput, scheme)
	}
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
