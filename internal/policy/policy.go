// Package policy holds the static role to route-prefix table and the
// access decision built on it.
//
// Access is a prefix match: an allowed "/projects" also authorizes
// "/projects/42/attachments". Security decisions must go through CanAccess;
// AllowedRoutes exists for building navigation.
package policy

import (
	"strings"

	"github.com/spec-kit/project-portal/internal/domain"
)

// CanAccess reports whether role may open routePath. Query strings are
// ignored and unknown roles are denied.
func CanAccess(role domain.Role, routePath string) bool {
	path, _, _ := strings.Cut(routePath, "?")

	var allowed []Route
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleUser:
		allowed = userRoutes
	case domain.RoleGuest:
		allowed = guestRoutes
	default:
		return false
	}

	for _, prefix := range allowed {
		if strings.HasPrefix(path, string(prefix)) {
			return true
		}
	}
	return false
}

// AllowedRoutes returns a copy of the ordered route list for role.
func AllowedRoutes(role domain.Role) []Route {
	var routes []Route
	switch role {
	case domain.RoleAdmin:
		routes = adminRoutes
	case domain.RoleUser:
		routes = userRoutes
	case domain.RoleGuest:
		routes = guestRoutes
	default:
		return nil
	}
	return append([]Route(nil), routes...)
}

// RoleLabel returns a display name for role.
func RoleLabel(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "Administrator"
	case domain.RoleUser:
		return "Member"
	case domain.RoleGuest:
		return "Guest"
	default:
		return "Unknown"
	}
}

// RoleDescription returns a one-line summary of what role can do.
func RoleDescription(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "Full access, including user management and settings."
	case domain.RoleUser:
		return "Manage own projects, browse other projects and attachments."
	case domain.RoleGuest:
		return "Read-only access to the dashboard and shared projects."
	default:
		return "No access."
	}
}
