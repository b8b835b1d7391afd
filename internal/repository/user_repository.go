package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/persistence"
)

// UserRepository reads credential records for login and refresh.
type UserRepository interface {
	FindActiveUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// FindActiveUserByUsername matches the username case-insensitively. Inactive
// and missing users both yield domain.ErrNotFound.
func (r *userRepository) FindActiveUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("find user: %w", persistence.ErrNotConfigured)
	}

	const query = `
        SELECT id, username, credential, role, active, created_at, updated_at
        FROM users WHERE LOWER(username)=LOWER($1) AND active`

	var (
		user domain.User
		role string
	)
	if err := r.pool.QueryRow(ctx, query, strings.TrimSpace(username)).Scan(
		&user.ID,
		&user.Username,
		&user.Credential,
		&role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	user.Role = parsed
	return &user, nil
}
