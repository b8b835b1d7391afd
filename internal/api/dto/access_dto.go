package dto

import (
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
)

// Envelope wraps every successful response.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// RouteItem is one navigation entry.
type RouteItem struct {
	Path  policy.Route `json:"path"`
	Label string       `json:"label"`
}

// RoutesResponse lists the navigation of a role.
type RoutesResponse struct {
	Role   domain.Role `json:"role"`
	Routes []RouteItem `json:"routes"`
}

// AccessResponse answers a single policy question.
type AccessResponse struct {
	Path    string      `json:"path"`
	Role    domain.Role `json:"role"`
	Allowed bool        `json:"allowed"`
}

// RoleItem describes a role for the user administration page.
type RoleItem struct {
	Role        domain.Role `json:"role"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Routes      []RouteItem `json:"routes"`
}

// SessionSettingsResponse exposes the token and throttle settings.
type SessionSettingsResponse struct {
	AccessTTLSeconds   int64  `json:"accessTtlSeconds"`
	RefreshTTLSeconds  int64  `json:"refreshTtlSeconds"`
	CredentialScheme   string `json:"credentialScheme"`
	LoginMaxFailures   int    `json:"loginMaxFailures"`
	LoginWindowSeconds int64  `json:"loginWindowSeconds"`
}

// NewRouteItems labels a route list.
func NewRouteItems(routes []policy.Route) []RouteItem {
	items := make([]RouteItem, 0, len(routes))
	for _, route := range routes {
		items = append(items, RouteItem{Path: route, Label: policy.RouteLabel(route)})
	}
	return items
}
