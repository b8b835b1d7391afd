package dto

import (
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest payload for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UserResponse describes the signed-in principal.
type UserResponse struct {
	ID              string      `json:"id"`
	Username        string      `json:"username"`
	Role            domain.Role `json:"role"`
	RoleLabel       string      `json:"roleLabel"`
	RoleDescription string      `json:"roleDescription"`
}

// AuthResponse standard response for login and refresh.
type AuthResponse struct {
	User   UserResponse     `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

// MeResponse describes the verified access token of the caller.
type MeResponse struct {
	User             UserResponse `json:"user"`
	ExpiresAt        string       `json:"expiresAt"`
	RemainingSeconds int64        `json:"remainingSeconds"`
	ExpiringSoon     bool         `json:"expiringSoon"`
}

// NewUserResponse maps a principal onto its response.
func NewUserResponse(id, username string, role domain.Role) UserResponse {
	return UserResponse{
		ID:              id,
		Username:        username,
		Role:            role,
		RoleLabel:       policy.RoleLabel(role),
		RoleDescription: policy.RoleDescription(role),
	}
}
