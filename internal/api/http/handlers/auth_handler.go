package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/api/dto"
	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/service"
	"github.com/spec-kit/project-portal/internal/token"
)

// AuthHandler exposes login, refresh, logout and identity endpoints.
type AuthHandler struct {
	auth  *service.AuthService
	clock domain.Clock
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, clock domain.Clock) *AuthHandler {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &AuthHandler{auth: authService, clock: clock}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(authResponse(result)))
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(authResponse(result)))
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claim, _ := auth.ClaimFromContext(c)
	if err := h.auth.Logout(c.UserContext(), claim); err != nil {
		return err
	}
	return c.JSON(dto.OK(fiber.Map{"loggedOut": true}))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return domain.ErrAuthHeaderAbsent
	}

	remaining := claim.Remaining(h.clock.Now())
	return c.JSON(dto.OK(dto.MeResponse{
		User:             dto.NewUserResponse(claim.SubjectID, claim.PrincipalName, claim.Role),
		ExpiresAt:        claim.ExpiresAt.Format(time.RFC3339),
		RemainingSeconds: int64(remaining / time.Second),
		ExpiringSoon:     remaining < token.ExpiringSoonWindow,
	}))
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:   dto.NewUserResponse(result.User.ID, result.User.Username, result.User.Role),
		Tokens: result.Tokens,
	}
}
