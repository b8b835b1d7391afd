package guard

import "github.com/spec-kit/project-portal/internal/domain"

// State is the phase of a mounted view.
type State int

const (
	// Unhydrated is the synchronous initial state; the session is unknown.
	Unhydrated State = iota
	// Checking means the session is being resolved.
	Checking
	Authorized
	RedirectLogin
	RedirectUnauthorized
)

func (s State) String() string {
	switch s {
	case Unhydrated:
		return "unhydrated"
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// Settled reports whether s is a final state.
func (s State) Settled() bool {
	switch s {
	case Authorized, RedirectLogin, RedirectUnauthorized:
		return true
	default:
		return false
	}
}

// SessionState is the client's view of its own session, resolved once per
// mount.
type SessionState struct {
	Hydrated      bool
	Authenticated bool
	User          *domain.IdentityClaim
}
