package guard

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/medconnect/portal-gateway/pkg/model"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		expected Outcome
	}{
		{
			name:     "restore in flight wins over everything",
			input:    Input{Restoring: true, Authenticated: true, Role: model.RoleAdmin, RequiredRoles: []model.Role{model.RolePatient}},
			expected: Pending,
		},
		{
			name:     "unauthenticated goes to login",
			input:    Input{},
			expected: RedirectLogin,
		},
		{
			name:     "unauthenticated goes to login even without role requirements",
			input:    Input{RequiredRoles: nil},
			expected: RedirectLogin,
		},
		{
			name:     "wrong role goes to unauthorized, not login",
			input:    Input{Authenticated: true, Role: model.RolePatient, RequiredRoles: []model.Role{model.RoleDoctor}},
			expected: RedirectUnauthorized,
		},
		{
			name:     "matching role is allowed",
			input:    Input{Authenticated: true, Role: model.RoleDoctor, RequiredRoles: []model.Role{model.RoleDoctor}},
			expected: Allow,
		},
		{
			name:     "any of multiple required roles is allowed",
			input:    Input{Authenticated: true, Role: model.RoleDoctor, RequiredRoles: []model.Role{model.RolePatient, model.RoleDoctor}},
			expected: Allow,
		},
		{
			name:     "no role requirement admits any authenticated user",
			input:    Input{Authenticated: true, Role: model.RoleAdmin},
			expected: Allow,
		},
		{
			name:     "unknown role never passes a role gate",
			input:    Input{Authenticated: true, Role: model.Role("superuser"), RequiredRoles: []model.Role{model.RoleAdmin}},
			expected: RedirectUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.input))
		})
	}
}

func TestDashboardRoute(t *testing.T) {
	assert.Equal(t, "/portal/v1/dashboard/patient", DashboardRoute(model.RolePatient))
	assert.Equal(t, "/portal/v1/dashboard/doctor", DashboardRoute(model.RoleDoctor))
	assert.Equal(t, "/portal/v1/dashboard/admin", DashboardRoute(model.RoleAdmin))

	// An unrecognized role is an inconsistent session: back to login.
	assert.Equal(t, LoginRoute, DashboardRoute(model.Role("superuser")))
	assert.Equal(t, LoginRoute, DashboardRoute(model.Role("")))
}

// Property: the decision function is total and every input lands on exactly
// one of the four outcomes, with the precedence pending > login > role.
func TestDecideTotalityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	genRole := gen.OneConstOf(
		model.RolePatient, model.RoleDoctor, model.RoleAdmin, model.Role("unknown"), model.Role(""),
	)
	genRoles := gen.SliceOf(genRole)

	properties.Property("every input produces a known outcome", prop.ForAll(
		func(restoring, authenticated bool, role model.Role, required []model.Role) bool {
			outcome := Decide(Input{
				Restoring:     restoring,
				Authenticated: authenticated,
				Role:          role,
				RequiredRoles: required,
			})

			switch outcome {
			case Pending, RedirectLogin, RedirectUnauthorized, Allow:
				return true
			default:
				return false
			}
		},
		gen.Bool(),
		gen.Bool(),
		genRole,
		genRoles,
	))

	properties.Property("restoring always yields pending", prop.ForAll(
		func(authenticated bool, role model.Role, required []model.Role) bool {
			outcome := Decide(Input{
				Restoring:     true,
				Authenticated: authenticated,
				Role:          role,
				RequiredRoles: required,
			})
			return outcome == Pending
		},
		gen.Bool(),
		genRole,
		genRoles,
	))

	properties.Property("unauthenticated never reaches the unauthorized page", prop.ForAll(
		func(role model.Role, required []model.Role) bool {
			outcome := Decide(Input{
				Authenticated: false,
				Role:          role,
				RequiredRoles: required,
			})
			return outcome == RedirectLogin
		},
		genRole,
		genRoles,
	))

	properties.TestingRun(t)
}
