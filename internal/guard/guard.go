// Package guard decides whether a request may reach a route. The decision
// logic is pure so it can be tested independently of HTTP plumbing.
package guard

import (
	"github.com/medconnect/portal-gateway/pkg/model"
)

// Outcome is the guard's verdict for one request.
type Outcome string

const (
	// Pending means a session restore is still in flight; render a neutral
	// state and do not redirect.
	Pending Outcome = "pending"
	// RedirectLogin sends the caller to the login destination.
	RedirectLogin Outcome = "redirect_login"
	// RedirectUnauthorized sends an authenticated caller without the
	// required role to the unauthorized destination.
	RedirectUnauthorized Outcome = "redirect_unauthorized"
	// Allow renders the requested destination.
	Allow Outcome = "allow"
)

// Input is the session snapshot plus the route's role requirements.
type Input struct {
	Restoring     bool
	Authenticated bool
	Role          model.Role
	RequiredRoles []model.Role
}

// Decide applies the routing rules: pending wins over everything, then the
// authentication check, then the role check.
func Decide(in Input) Outcome {
	if in.Restoring {
		return Pending
	}

	if !in.Authenticated {
		return RedirectLogin
	}

	if len(in.RequiredRoles) > 0 && !roleAllowed(in.Role, in.RequiredRoles) {
		return RedirectUnauthorized
	}

	return Allow
}

// DashboardRoute maps an authenticated role to its dashboard destination.
// Unknown roles are treated as an inconsistent session and sent back to
// login rather than crashing.
func DashboardRoute(role model.Role) string {
	switch role {
	case model.RolePatient:
		return "/portal/v1/dashboard/patient"
	case model.RoleDoctor:
		return "/portal/v1/dashboard/doctor"
	case model.RoleAdmin:
		return "/portal/v1/dashboard/admin"
	default:
		return LoginRoute
	}
}

// Destinations used by redirects.
const (
	LoginRoute        = "/portal/v1/auth/login"
	UnauthorizedRoute = "/portal/v1/unauthorized"
)

func roleAllowed(role model.Role, allowed []model.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
