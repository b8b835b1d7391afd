// Package guard decides, per mounted view, whether to render protected
// content, a placeholder, or a redirect.
//
// A mount starts Unhydrated and renders a placeholder. One goroutine then
// resolves the local session and hands a single SessionState to the
// reconciler over a buffered channel. Nothing is decided from session state
// before that value arrives, and nothing is applied after Unmount.
package guard

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
)

// DefaultPlaceholder is rendered until the mount settles.
const DefaultPlaceholder = "Loading..."

// SessionReader answers local authentication questions. *session.Store
// implements it.
type SessionReader interface {
	IsAuthenticated() bool
	CurrentUser() (*domain.IdentityClaim, bool)
}

// Loader lazily produces the session reader. It must return once ctx is
// done.
type Loader func(ctx context.Context) (SessionReader, error)

// Navigator performs redirects. It is called with the mount locked and must
// not call back into the Mount.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// View describes a mountable page.
type View struct {
	Route       policy.Route
	Title       string
	RequireAuth bool
	// RequiredRole is a minimum in the order admin > user > guest. When set,
	// the role must be at least RequiredRole and policy.CanAccess must allow
	// Route; either failing redirects to /unauthorized. Empty admits any
	// authenticated role.
	RequiredRole domain.Role
	Render       func(SessionState) string
}

// Option configures a Guard.
type Option func(*Guard)

// WithPlaceholder overrides the placeholder content.
func WithPlaceholder(placeholder string) Option {
	return func(g *Guard) {
		g.placeholder = placeholder
	}
}

// WithLogger sets the logger used for loader failures.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// Guard mounts views.
type Guard struct {
	loader      Loader
	navigator   Navigator
	placeholder string
	logger      *zap.Logger
}

// New builds a Guard. A nil navigator discards redirects.
func New(loader Loader, navigator Navigator, opts ...Option) *Guard {
	g := &Guard{
		loader:      loader,
		navigator:   navigator,
		placeholder: DefaultPlaceholder,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.navigator == nil {
		g.navigator = NavigatorFunc(func(string) {})
	}
	return g
}

// LoginTarget is where unauthenticated visitors of route are sent.
func LoginTarget(route policy.Route) string {
	return string(policy.RouteLogin) + "?next=" + url.QueryEscape(string(route))
}

// Mount starts resolving view and returns immediately in Unhydrated.
func (g *Guard) Mount(ctx context.Context, view View) *Mount {
	ctx, cancel := context.WithCancel(ctx)
	m := &Mount{
		guard:  g,
		view:   view,
		state:  Unhydrated,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	results := make(chan SessionState, 1)
	go m.resolve(ctx, results)
	go m.await(ctx, results)
	return m
}

// Mount is one mounted view.
type Mount struct {
	guard  *Guard
	view   View
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     State
	session   SessionState
	target    string
	unmounted bool
}

func (m *Mount) resolve(ctx context.Context, results chan<- SessionState) {
	m.mu.Lock()
	if !m.unmounted {
		m.state = Checking
	}
	m.mu.Unlock()

	resolved := SessionState{Hydrated: true}
	reader, err := m.guard.loader(ctx)
	if err != nil {
		m.guard.logger.Debug("session unavailable", zap.String("route", string(m.view.Route)), zap.Error(err))
	} else if reader != nil && reader.IsAuthenticated() {
		if user, ok := reader.CurrentUser(); ok {
			resolved.Authenticated = true
			resolved.User = user
		}
	}

	// Buffered: never blocks even when nobody is waiting any more.
	results <- resolved
}

func (m *Mount) await(ctx context.Context, results <-chan SessionState) {
	defer close(m.done)
	defer m.cancel()

	select {
	case <-ctx.Done():
	case resolved := <-results:
		m.reconcile(resolved)
	}
}

func (m *Mount) reconcile(resolved SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unmounted {
		return
	}

	m.session = resolved
	m.state, m.target = decide(m.view, resolved)
	if m.target != "" {
		m.guard.navigator.Navigate(m.target)
	}
}

func decide(view View, s SessionState) (State, string) {
	if !view.RequireAuth {
		return Authorized, ""
	}
	if !s.Authenticated || s.User == nil {
		return RedirectLogin, LoginTarget(view.Route)
	}
	if view.RequiredRole != "" {
		role := s.User.Role
		if !role.AtLeast(view.RequiredRole) || !policy.CanAccess(role, string(view.Route)) {
			return RedirectUnauthorized, string(policy.RouteUnauthorized)
		}
	}
	return Authorized, ""
}

// State returns the current state.
func (m *Mount) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the resolved session; Hydrated is false until then.
func (m *Mount) Session() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Target returns the redirect target of a redirect state.
func (m *Mount) Target() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

// Render returns what the view shows right now: the placeholder until the
// mount settles, the content when authorized, nothing for redirects.
func (m *Mount) Render() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Unhydrated, Checking:
		return m.guard.placeholder
	case Authorized:
		if m.view.Render == nil {
			return m.view.Title
		}
		return m.view.Render(m.session)
	default:
		return ""
	}
}

// Done is closed once the mount has settled or been unmounted.
func (m *Mount) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until Done or ctx ends and returns the state at that point.
func (m *Mount) Wait(ctx context.Context) (State, error) {
	select {
	case <-m.done:
		return m.State(), nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

// Unmount cancels resolution. A session resolved afterwards is discarded and
// no redirect fires.
func (m *Mount) Unmount() {
	m.mu.Lock()
	m.unmounted = true
	m.mu.Unlock()
	m.cancel()
}
