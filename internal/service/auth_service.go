package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/events"
	"github.com/spec-kit/project-portal/internal/observability"
)

var tracer = observability.Tracer("project-portal/service")

// UserLookup finds credential records. It returns domain.ErrNotFound for
// unknown and inactive users alike.
type UserLookup interface {
	FindActiveUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenIssuer issues token pairs and verifies refresh tokens.
type TokenIssuer interface {
	Issue(in domain.ClaimInput) (domain.TokenPair, error)
	VerifyRefresh(tokenStr string) (*domain.IdentityClaim, error)
}

// LoginLimiter throttles repeated failed logins.
type LoginLimiter interface {
	Allow(ctx context.Context, principal string) error
	RecordFailure(ctx context.Context, principal string)
	Reset(ctx context.Context, principal string)
}

// AuthResult is returned by a successful login or refresh.
type AuthResult struct {
	User   *domain.User
	Tokens domain.TokenPair
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Users      UserLookup
	Tokens     TokenIssuer
	Comparer   auth.CredentialComparer
	Limiter    LoginLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      domain.Clock
}

// AuthService coordinates login, refresh and logout flows.
type AuthService struct {
	users      UserLookup
	tokens     TokenIssuer
	comparer   auth.CredentialComparer
	limiter    LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	clock      domain.Clock
}

// NewAuthService builds the service. Limiter and Dispatcher are optional.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.Users,
		tokens:     deps.Tokens,
		comparer:   deps.Comparer,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		clock:      deps.Clock,
	}
	if s.comparer == nil {
		s.comparer = auth.PlainComparer{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = domain.RealClock{}
	}
	return s
}

// Login checks the throttle, the user store and the credential, then issues
// a token pair. Unknown users and wrong credentials are indistinguishable to
// the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		err := fmt.Errorf("%w: username and password required", domain.ErrInvalidInput)
		fail(span, err)
		return nil, err
	}
	actor := events.Actor{PrincipalName: username}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, username); err != nil {
			s.metrics.RecordLoginThrottled()
			s.publish(ctx, events.EventLoginThrottled, actor, nil)
			fail(span, err)
			return nil, err
		}
	}

	user, err := s.users.FindActiveUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.loginFailed(ctx, actor, "unknown_user")
			fail(span, domain.ErrInvalidCredentials)
			return nil, domain.ErrInvalidCredentials
		}
		fail(span, err)
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	actor = actorFor(user)
	if err := s.comparer.Compare(user.Credential, password); err != nil {
		s.loginFailed(ctx, actor, "bad_credential")
		fail(span, domain.ErrInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(user.ClaimInput())
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, username)
	}
	s.metrics.RecordTokensIssued("login")
	s.publish(ctx, events.EventLoginSucceeded, actor, issuedPayload(pair))
	span.SetAttributes(attribute.String("auth.role", string(user.Role)))

	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The account must
// still be active and still own the subject ID; the new pair carries the
// account's current role. Refresh tokens are not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "auth.refresh")
	defer span.End()

	if strings.TrimSpace(refreshToken) == "" {
		err := fmt.Errorf("%w: refresh token required", domain.ErrInvalidInput)
		fail(span, err)
		return nil, err
	}

	claim, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("refresh: %w", err)
	}

	user, err := s.users.FindActiveUserByUsername(ctx, claim.PrincipalName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: account %q no longer active", domain.ErrTokenInvalid, claim.PrincipalName)
			fail(span, err)
			return nil, err
		}
		fail(span, err)
		return nil, fmt.Errorf("refresh lookup: %w", err)
	}
	if user.ID != claim.SubjectID {
		err := fmt.Errorf("%w: subject mismatch for %q", domain.ErrTokenInvalid, claim.PrincipalName)
		fail(span, err)
		return nil, err
	}

	pair, err := s.tokens.Issue(user.ClaimInput())
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.metrics.RecordTokensIssued("refresh")
	s.publish(ctx, events.EventTokensRefreshed, actorFor(user), issuedPayload(pair))
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Logout records the sign-out. Tokens are stateless, so the client discards
// them and nothing is revoked here.
func (s *AuthService) Logout(ctx context.Context, claim *domain.IdentityClaim) error {
	if claim == nil {
		return domain.ErrAuthHeaderAbsent
	}
	s.publish(ctx, events.EventLoggedOut, events.Actor{
		SubjectID:     claim.SubjectID,
		PrincipalName: claim.PrincipalName,
		Role:          claim.Role,
	}, nil)
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, actor events.Actor, reason string) {
	if s.limiter != nil {
		s.limiter.RecordFailure(ctx, actor.PrincipalName)
	}
	s.metrics.RecordAuthFailure("credentials")
	s.publish(ctx, events.EventLoginFailed, actor, events.LoginFailedPayload{Reason: reason})
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, actor, s.clock.Now(), payload)); err != nil {
		s.logger.Warn("publish auth event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func actorFor(user *domain.User) events.Actor {
	return events.Actor{SubjectID: user.ID, PrincipalName: user.Username, Role: user.Role}
}

func issuedPayload(pair domain.TokenPair) events.TokensIssuedPayload {
	return events.TokensIssuedPayload{
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
