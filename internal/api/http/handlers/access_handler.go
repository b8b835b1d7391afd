package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/api/dto"
	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

// AccessHandler answers navigation and policy questions for the caller.
type AccessHandler struct {
	settings config.AuthConfig
}

// NewAccessHandler constructs handler.
func NewAccessHandler(settings config.AuthConfig) *AccessHandler {
	return &AccessHandler{settings: settings}
}

// Routes handles GET /api/routes.
func (h *AccessHandler) Routes(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return domain.ErrAuthHeaderAbsent
	}
	return c.JSON(dto.OK(dto.RoutesResponse{
		Role:   claim.Role,
		Routes: dto.NewRouteItems(policy.AllowedRoutes(claim.Role)),
	}))
}

// Check handles GET /api/access?path=.
func (h *AccessHandler) Check(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return domain.ErrAuthHeaderAbsent
	}
	path := c.Query("path")
	if path == "" {
		return apperrors.NewValidationError("path query parameter required", nil)
	}
	return c.JSON(dto.OK(dto.AccessResponse{
		Path:    path,
		Role:    claim.Role,
		Allowed: policy.CanAccess(claim.Role, path),
	}))
}

// Roles handles GET /api/roles.
func (h *AccessHandler) Roles(c *fiber.Ctx) error {
	roles := domain.Roles()
	items := make([]dto.RoleItem, 0, len(roles))
	for _, role := range roles {
		items = append(items, dto.RoleItem{
			Role:        role,
			Label:       policy.RoleLabel(role),
			Description: policy.RoleDescription(role),
			Routes:      dto.NewRouteItems(policy.AllowedRoutes(role)),
		})
	}
	return c.JSON(dto.OK(items))
}

// SessionSettings handles GET /api/settings/session.
func (h *AccessHandler) SessionSettings(c *fiber.Ctx) error {
	return c.JSON(dto.OK(dto.SessionSettingsResponse{
		AccessTTLSeconds:   int64(h.settings.AccessTTL.Seconds()),
		RefreshTTLSeconds:  int64(h.settings.RefreshTTL.Seconds()),
		CredentialScheme:   h.settings.CredentialScheme,
		LoginMaxFailures:   h.settings.LoginMaxFailures,
		LoginWindowSeconds: int64(h.settings.LoginWindow.Seconds()),
	}))
}
