package policy

// Route is a path prefix in the portal UI and API.
type Route string

const (
	RouteDashboard     Route = "/dashboard"
	RouteProjects      Route = "/projects"
	RouteOtherProjects Route = "/other-projects"
	RouteAttachments   Route = "/attachments"
	RouteProfile       Route = "/profile"
	RouteUsers         Route = "/users"
	RouteSettings      Route = "/settings"

	// Views outside the policy table.
	RouteLogin        Route = "/login"
	RouteUnauthorized Route = "/unauthorized"
)

// The admin list must stay a superset of every other list; CanAccess short
// circuits admin, so a route missing here only affects navigation.
var (
	adminRoutes = []Route{
		RouteDashboard,
		RouteProjects,
		RouteOtherProjects,
		RouteAttachments,
		RouteProfile,
		RouteUsers,
		RouteSettings,
	}
	userRoutes = []Route{
		RouteDashboard,
		RouteProjects,
		RouteOtherProjects,
		RouteAttachments,
		RouteProfile,
	}
	guestRoutes = []Route{
		RouteDashboard,
		RouteProjects,
		RouteProfile,
	}
)

var routeLabels = map[Route]string{
	RouteDashboard:     "Dashboard",
	RouteProjects:      "My Projects",
	RouteOtherProjects: "Other Projects",
	RouteAttachments:   "Attachments",
	RouteProfile:       "Profile",
	RouteUsers:         "User Management",
	RouteSettings:      "Settings",
	RouteLogin:         "Sign In",
	RouteUnauthorized:  "Access Denied",
}

// RouteLabel returns the navigation label for a route.
func RouteLabel(route Route) string {
	if label, ok := routeLabels[route]; ok {
		return label
	}
	return string(route)
}
