// Package views is the catalog of portal pages the guard can mount.
package views

import (
	"fmt"
	"strings"

	"github.com/spec-kit/project-portal/internal/client/guard"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
)

var catalog = []guard.View{
	page(policy.RouteDashboard, domain.RoleGuest),
	page(policy.RouteProjects, domain.RoleGuest),
	page(policy.RouteOtherProjects, domain.RoleUser),
	page(policy.RouteAttachments, domain.RoleUser),
	page(policy.RouteProfile, domain.RoleGuest),
	page(policy.RouteUsers, domain.RoleAdmin),
	page(policy.RouteSettings, domain.RoleAdmin),
	{
		Route:  policy.RouteLogin,
		Title:  policy.RouteLabel(policy.RouteLogin),
		Render: func(guard.SessionState) string { return "Sign in with your username and password." },
	},
	{
		Route:  policy.RouteUnauthorized,
		Title:  policy.RouteLabel(policy.RouteUnauthorized),
		Render: func(guard.SessionState) string { return "Your role does not allow this page." },
	},
}

func page(route policy.Route, required domain.Role) guard.View {
	title := policy.RouteLabel(route)
	return guard.View{
		Route:        route,
		Title:        title,
		RequireAuth:  true,
		RequiredRole: required,
		Render: func(s guard.SessionState) string {
			if s.User == nil {
				return title
			}
			return fmt.Sprintf("%s\nSigned in as %s (%s)", title, s.User.PrincipalName, policy.RoleLabel(s.User.Role))
		},
	}
}

// All returns every view in navigation order.
func All() []guard.View {
	return append([]guard.View(nil), catalog...)
}

// Lookup finds the view serving path. Nested paths resolve to their
// top-level page, so "/projects/42" mounts the projects view with the full
// path kept as its route.
func Lookup(path string) (guard.View, bool) {
	clean, _, _ := strings.Cut(path, "?")
	if clean == "" {
		return guard.View{}, false
	}
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	for _, v := range catalog {
		base := string(v.Route)
		if clean == base || strings.HasPrefix(clean, base+"/") {
			v.Route = policy.Route(clean)
			return v, true
		}
	}
	return guard.View{}, false
}
