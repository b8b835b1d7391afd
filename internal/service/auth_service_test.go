package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/domain/domaintest"
	"github.com/spec-kit/project-portal/internal/events"
	"github.com/spec-kit/project-portal/internal/observability"
	"github.com/spec-kit/project-portal/internal/service"
	"github.com/spec-kit/project-portal/internal/token"
)

var testNow = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
}

func (f *fakeUsers) FindActiveUserByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[strings.ToLower(username)]
	if !ok || !user.Active {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) put(user *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[strings.ToLower(user.Username)] = user
}

type fakeLimiter struct {
	failures map[string]int
	max      int
}

func (f *fakeLimiter) Allow(_ context.Context, principal string) error {
	if f.failures[principal] >= f.max {
		return domain.ErrLoginThrottled
	}
	return nil
}

func (f *fakeLimiter) RecordFailure(_ context.Context, principal string) {
	f.failures[principal]++
}

func (f *fakeLimiter) Reset(_ context.Context, principal string) {
	delete(f.failures, principal)
}

type harness struct {
	svc     *service.AuthService
	users   *fakeUsers
	limiter *fakeLimiter
	clock   *domaintest.FakeClock
	codec   *token.Codec
	events  []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		users: &fakeUsers{users: map[string]*domain.User{}},
		limiter: &fakeLimiter{
			failures: map[string]int{},
			max:      3,
		},
		clock: domaintest.NewFakeClock(testNow),
	}
	h.users.put(&domain.User{ID: "u-ada", Username: "ada", Credential: "hunter2", Role: domain.RoleUser, Active: true})
	h.users.put(&domain.User{ID: "u-bob", Username: "bob", Credential: "secret", Role: domain.RoleGuest, Active: false})

	codec, err := token.NewCodec(token.Config{Secret: "service-test", Clock: h.clock})
	require.NoError(t, err)
	h.codec = codec

	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range []events.EventType{
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventLoginThrottled,
		events.EventTokensRefreshed,
		events.EventLoggedOut,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			h.events = append(h.events, e)
			return nil
		})
	}

	h.svc = service.NewAuthService(service.AuthDependencies{
		Users:      h.users,
		Tokens:     codec,
		Limiter:    h.limiter,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
		Clock:      h.clock,
	})
	return h
}

func (h *harness) lastEvent(t *testing.T) events.Event {
	t.Helper()
	require.NotEmpty(t, h.events)
	return h.events[len(h.events)-1]
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Login(context.Background(), "ada", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "u-ada", result.User.ID)
	claim, err := h.codec.Verify(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada", claim.PrincipalName)
	assert.Equal(t, domain.RoleUser, claim.Role)
	assert.Equal(t, testNow.Add(24*time.Hour), result.Tokens.AccessExpiresAt)

	event := h.lastEvent(t)
	assert.Equal(t, events.EventLoginSucceeded, event.Type)
	assert.Equal(t, "u-ada", event.Actor.SubjectID)
	assert.Equal(t, testNow, event.Timestamp)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		password   string
		wantErr    error
		wantReason string
	}{
		{"wrong credential", "ada", "hunter3", domain.ErrInvalidCredentials, "bad_credential"},
		{"unknown user", "nobody", "hunter2", domain.ErrInvalidCredentials, "unknown_user"},
		{"inactive user", "bob", "secret", domain.ErrInvalidCredentials, "unknown_user"},
		{"credential is case sensitive", "ada", "HUNTER2", domain.ErrInvalidCredentials, "bad_credential"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			result, err := h.svc.Login(context.Background(), tt.username, tt.password)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			event := h.lastEvent(t)
			assert.Equal(t, events.EventLoginFailed, event.Type)
			assert.Equal(t, events.LoginFailedPayload{Reason: tt.wantReason}, event.Payload)
			assert.Equal(t, 1, h.limiter.failures[tt.username])
		})
	}
}

func TestLoginRejectsBlankInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Login(context.Background(), "  ", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.svc.Login(context.Background(), "ada", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, h.events)
}

func TestLoginThrottle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.svc.Login(ctx, "ada", "wrong")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	_, err := h.svc.Login(ctx, "ada", "hunter2")
	assert.ErrorIs(t, err, domain.ErrLoginThrottled, "correct credential is refused while throttled")
	assert.Equal(t, events.EventLoginThrottled, h.lastEvent(t).Type)
}

func TestLoginResetsFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _ = h.svc.Login(ctx, "ada", "wrong")
	_, err := h.svc.Login(ctx, "ada", "hunter2")
	require.NoError(t, err)

	assert.Zero(t, h.limiter.failures["ada"])
}

func TestLoginStoreFailure(t *testing.T) {
	h := newHarness(t)
	errDown := errors.New("connection refused")
	h.users.err = errDown

	_, err := h.svc.Login(context.Background(), "ada", "hunter2")

	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	login, err := h.svc.Login(ctx, "ada", "hunter2")
	require.NoError(t, err)

	// The access token has expired; only the refresh token matters.
	h.clock.Advance(25 * time.Hour)
	h.users.put(&domain.User{ID: "u-ada", Username: "ada", Credential: "hunter2", Role: domain.RoleAdmin, Active: true})

	result, err := h.svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)

	claim, err := h.codec.Verify(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claim.Role, "refresh picks up the current role")
	assert.Equal(t, testNow.Add(25*time.Hour+24*time.Hour), result.Tokens.AccessExpiresAt)
	assert.Equal(t, events.EventTokensRefreshed, h.lastEvent(t).Type)

	_, err = h.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.NoError(t, err, "refresh tokens are not rotated")
}

func TestRefreshFailures(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(h *harness, pair domain.TokenPair) string
		wantErr error
	}{
		{
			name:    "access token instead of refresh",
			prepare: func(_ *harness, pair domain.TokenPair) string { return pair.AccessToken },
			wantErr: domain.ErrTokenInvalid,
		},
		{
			name: "expired refresh token",
			prepare: func(h *harness, pair domain.TokenPair) string {
				h.clock.Advance(token.DefaultRefreshTTL)
				return pair.RefreshToken
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name:    "garbage",
			prepare: func(*harness, domain.TokenPair) string { return "abc.def" },
			wantErr: domain.ErrTokenMalformed,
		},
		{
			name:    "blank",
			prepare: func(*harness, domain.TokenPair) string { return "" },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "account deactivated",
			prepare: func(h *harness, pair domain.TokenPair) string {
				h.users.put(&domain.User{ID: "u-ada", Username: "ada", Role: domain.RoleUser, Active: false})
				return pair.RefreshToken
			},
			wantErr: domain.ErrTokenInvalid,
		},
		{
			name: "username reassigned",
			prepare: func(h *harness, pair domain.TokenPair) string {
				h.users.put(&domain.User{ID: "u-other", Username: "ada", Role: domain.RoleAdmin, Active: true})
				return pair.RefreshToken
			},
			wantErr: domain.ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			login, err := h.svc.Login(context.Background(), "ada", "hunter2")
			require.NoError(t, err)

			result, err := h.svc.Refresh(context.Background(), tt.prepare(h, login.Tokens))

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Logout(context.Background(), &domain.IdentityClaim{SubjectID: "u-ada", PrincipalName: "ada", Role: domain.RoleUser})
	require.NoError(t, err)

	event := h.lastEvent(t)
	assert.Equal(t, events.EventLoggedOut, event.Type)
	assert.Equal(t, "ada", event.Actor.PrincipalName)

	assert.ErrorIs(t, h.svc.Logout(context.Background(), nil), domain.ErrAuthHeaderAbsent)
}
