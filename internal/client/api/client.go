// Package api is the portal's HTTP client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/api/dto"
	"github.com/spec-kit/project-portal/internal/token"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

const defaultTimeout = 10 * time.Second

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the portal API.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New builds a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
	}
}

// Error is a failure reported by the server. It unwraps to the matching
// domain sentinel when the code is known.
type Error struct {
	Status  int
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	body := dto.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, fiber.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	body := dto.RefreshRequest{RefreshToken: refreshToken}
	if err := c.do(ctx, fiber.MethodPost, "/auth/refresh", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout notifies the server that the session ends.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, fiber.MethodPost, "/auth/logout", accessToken, nil, nil)
}

// Me returns the server's view of the access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*dto.MeResponse, error) {
	var out dto.MeResponse
	if err := c.do(ctx, fiber.MethodGet, "/auth/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Routes returns the navigation of the caller's role.
func (c *Client) Routes(ctx context.Context, accessToken string) (*dto.RoutesResponse, error) {
	var out dto.RoutesResponse
	if err := c.do(ctx, fiber.MethodGet, "/api/routes", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Check asks whether the caller may open path.
func (c *Client) Check(ctx context.Context, accessToken, path string) (*dto.AccessResponse, error) {
	var out dto.AccessResponse
	endpoint := "/api/access?path=" + url.QueryEscape(path)
	if err := c.do(ctx, fiber.MethodGet, endpoint, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request. The fiber agent has no context support, so ctx is
// only checked before sending and the configured timeout bounds the call.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	a.Timeout(c.timeout)
	if accessToken != "" {
		a.Set(fiber.HeaderAuthorization, token.AuthHeader(accessToken))
	}
	if body != nil {
		a.JSON(body)
	}

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	if status >= fiber.StatusBadRequest {
		return decodeFailure(status, raw)
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

func decodeFailure(status int, raw []byte) error {
	var failure apperrors.Failure
	if err := json.Unmarshal(raw, &failure); err != nil || failure.Error == "" {
		return &Error{Status: status, Message: strings.TrimSpace(string(raw))}
	}
	apiErr := &Error{Status: status, Code: failure.Code, Message: failure.Error}
	if sentinel, ok := apperrors.SentinelForCode(failure.Code); ok {
		apiErr.err = sentinel
	}
	return apiErr
}
