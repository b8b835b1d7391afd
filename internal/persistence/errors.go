package persistence

import "errors"

// ErrNotConfigured is returned by stores the process started without. The
// server still runs: readiness reports the dependency and logins fail.
var ErrNotConfigured = errors.New("store not configured")
