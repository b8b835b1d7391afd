package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/api/http/handlers"
	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/observability"
	"github.com/spec-kit/project-portal/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Access         *handlers.AccessHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Login and refresh are public; every
// other auth route and all of /api require a valid access token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Get("/routes", cfg.Access.Routes)
	api.Get("/access", cfg.Access.Check)
	api.Get("/roles", auth.RequireRouteAccess(policy.RouteUsers), cfg.Access.Roles)
	api.Get("/settings/session", auth.RequireRole(domain.RoleAdmin), cfg.Access.SessionSettings)
}
