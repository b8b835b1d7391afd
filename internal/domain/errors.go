package domain

import "errors"

// Sentinel errors for authentication and authorization outcomes.
// Match them with errors.Is.
var (
	// Startup
	ErrConfigMissing = errors.New("required configuration missing")

	// Token verification
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")

	// Request gating
	ErrAuthHeaderAbsent = errors.New("authentication required")
	ErrRouteDenied      = errors.New("route not permitted for role")

	// Login
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLoginThrottled     = errors.New("too many failed login attempts")

	// Generic
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// IsTokenError reports whether err is one of the token verification kinds.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenInvalid)
}

// NeedsReauthentication reports whether the client must sign in again
// rather than attempt a refresh.
func NeedsReauthentication(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrAuthHeaderAbsent)
}
