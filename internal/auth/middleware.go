package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/observability"
	"github.com/spec-kit/project-portal/internal/token"
)

// ClaimKey is the fiber Locals key holding the verified *domain.IdentityClaim.
const ClaimKey = "auth_claim"

type claimContextKey struct{}

var tracer = observability.Tracer("project-portal/auth")

// TokenVerifier verifies access tokens. *token.Codec implements it.
type TokenVerifier interface {
	Verify(tokenStr string) (*domain.IdentityClaim, error)
}

// AuthMiddleware validates bearer tokens. It performs no role checks and no
// lookups; see RequireRouteAccess and RequireRole for authorization.
type AuthMiddleware struct {
	tokens  TokenVerifier
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenVerifier, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, logger: logger, metrics: metrics}
}

// Handle enforces authentication for protected routes. Rejected requests
// never reach the next handler.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	tokenStr, ok := token.ExtractFromAuthHeader(c.Get(fiber.HeaderAuthorization))
	if !ok {
		m.metrics.RecordAuthFailure("header_absent")
		return domain.ErrAuthHeaderAbsent
	}

	ctx, span := tracer.Start(c.UserContext(), "auth.verify_token")
	defer span.End()

	claim, err := m.tokens.Verify(tokenStr)
	if err != nil {
		kind := failureKind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		m.metrics.RecordAuthFailure(kind)
		m.logger.Debug("token rejected",
			zap.String("kind", kind),
			zap.String("path", c.Path()),
			zap.Error(err))
		return fmt.Errorf("authenticate: %w", err)
	}

	span.SetAttributes(
		attribute.String("auth.subject_id", claim.SubjectID),
		attribute.String("auth.role", string(claim.Role)),
	)

	c.Locals(ClaimKey, claim)
	c.SetUserContext(context.WithValue(ctx, claimContextKey{}, claim))
	return c.Next()
}

// ClaimFromContext retrieves the verified claim stored by Handle.
func ClaimFromContext(c *fiber.Ctx) (*domain.IdentityClaim, bool) {
	claim, ok := c.Locals(ClaimKey).(*domain.IdentityClaim)
	return claim, ok && claim != nil
}

// ClaimFromStdContext retrieves the verified claim from a request context,
// for code below the HTTP layer.
func ClaimFromStdContext(ctx context.Context) (*domain.IdentityClaim, bool) {
	claim, ok := ctx.Value(claimContextKey{}).(*domain.IdentityClaim)
	return claim, ok && claim != nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, domain.ErrTokenInvalid):
		return "invalid"
	default:
		return "unknown"
	}
}
