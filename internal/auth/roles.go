package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
)

// RequireRouteAccess allows the request only when the caller's role may open
// route in the portal. It must run after AuthMiddleware.Handle.
func RequireRouteAccess(route policy.Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, ok := ClaimFromContext(c)
		if !ok {
			return domain.ErrAuthHeaderAbsent
		}
		if !policy.CanAccess(claim.Role, string(route)) {
			return fmt.Errorf("%w: %s cannot open %s", domain.ErrRouteDenied, claim.Role, route)
		}
		return c.Next()
	}
}

// RequireRole ensures the caller has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		claim, ok := ClaimFromContext(c)
		if !ok {
			return domain.ErrAuthHeaderAbsent
		}
		if _, exists := allowedSet[claim.Role]; !exists {
			return fmt.Errorf("%w: role %s", domain.ErrRouteDenied, claim.Role)
		}
		return c.Next()
	}
}
