package api_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-portal/internal/api/dto"
	"github.com/spec-kit/project-portal/internal/client/api"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

const goodToken = "good-token"

func startServer(t *testing.T) *api.Client {
	t.Helper()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          apperrors.Handler,
	})

	app.Post("/auth/login", func(c *fiber.Ctx) error {
		var req dto.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.Username != "ada" || req.Password != "secret" {
			return domain.ErrInvalidCredentials
		}
		return c.JSON(dto.OK(dto.AuthResponse{
			User:   dto.NewUserResponse("u-1", "ada", domain.RoleUser),
			Tokens: domain.TokenPair{AccessToken: goodToken, RefreshToken: "r", TokenType: "Bearer"},
		}))
	})
	app.Post("/auth/refresh", func(c *fiber.Ctx) error {
		return domain.ErrTokenExpired
	})
	app.Post("/auth/logout", func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "Bearer "+goodToken {
			return domain.ErrAuthHeaderAbsent
		}
		return c.JSON(dto.OK(fiber.Map{"loggedOut": true}))
	})
	app.Get("/api/routes", func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "Bearer "+goodToken {
			return domain.ErrTokenMalformed
		}
		return c.JSON(dto.OK(dto.RoutesResponse{
			Role:   domain.RoleGuest,
			Routes: dto.NewRouteItems(policy.AllowedRoutes(domain.RoleGuest)),
		}))
	})
	app.Get("/api/access", func(c *fiber.Ctx) error {
		path := c.Query("path")
		return c.JSON(dto.OK(dto.AccessResponse{
			Path:    path,
			Role:    domain.RoleGuest,
			Allowed: policy.CanAccess(domain.RoleGuest, path),
		}))
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })

	return api.New(api.Config{BaseURL: "http://" + ln.Addr().String() + "/", Timeout: 2 * time.Second})
}

func TestLogin(t *testing.T) {
	client := startServer(t)

	resp, err := client.Login(context.Background(), "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ada", resp.User.Username)
	assert.Equal(t, domain.RoleUser, resp.User.Role)
	assert.Equal(t, goodToken, resp.Tokens.AccessToken)
}

func TestLoginRejected(t *testing.T) {
	client := startServer(t)

	_, err := client.Login(context.Background(), "ada", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, fiber.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

func TestRefreshExpired(t *testing.T) {
	client := startServer(t)

	_, err := client.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.False(t, domain.NeedsReauthentication(err))
}

func TestAuthenticatedCalls(t *testing.T) {
	client := startServer(t)
	ctx := context.Background()

	require.NoError(t, client.Logout(ctx, goodToken))
	assert.ErrorIs(t, client.Logout(ctx, ""), domain.ErrAuthHeaderAbsent)

	routes, err := client.Routes(ctx, goodToken)
	require.NoError(t, err)
	require.Len(t, routes.Routes, 3)
	assert.Equal(t, policy.RouteDashboard, routes.Routes[0].Path)

	_, err = client.Routes(ctx, "forged")
	assert.ErrorIs(t, err, domain.ErrTokenMalformed)

	check, err := client.Check(ctx, goodToken, "/projects/7?tab=files")
	require.NoError(t, err)
	assert.Equal(t, "/projects/7?tab=files", check.Path)
	assert.True(t, check.Allowed)
}

func TestCanceledContext(t *testing.T) {
	client := api.New(api.Config{BaseURL: "http://127.0.0.1:1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Me(ctx, goodToken)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnreachableServer(t *testing.T) {
	client := api.New(api.Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})

	_, err := client.Me(context.Background(), goodToken)
	require.Error(t, err)
	var apiErr *api.Error
	assert.False(t, errors.As(err, &apiErr))
}
