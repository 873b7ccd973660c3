package guard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/medconnect/portal-gateway/internal/session"
	"github.com/medconnect/portal-gateway/pkg/model"
	"go.uber.org/zap"
)

// Context keys set by the middleware for downstream handlers.
const (
	ContextIdentity = "identity"
	ContextToken    = "token"
)

// RequireAuth resolves the bearer token to a session, attempting a backend
// restore for tokens the store has not seen. Unauthenticated requests are
// redirected to the login destination.
func RequireAuth(store *session.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			redirect(c, RedirectLogin)
			return
		}

		identity, err := store.Restore(c.Request.Context(), token)
		if err != nil {
			logger.Warn("session restore failed", zap.Error(err))
			redirect(c, RedirectLogin)
			return
		}

		c.Set(ContextIdentity, *identity)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// RequireRoles gates a route to the given roles. Must run after RequireAuth.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)

		outcome := Decide(Input{
			Authenticated: ok,
			Role:          identity.Role,
			RequiredRoles: roles,
		})

		if outcome != Allow {
			redirect(c, outcome)
			return
		}

		c.Next()
	}
}

// IdentityFrom returns the authenticated identity attached by RequireAuth.
func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}

// TokenFrom returns the bearer token attached by RequireAuth.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextToken)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func redirect(c *gin.Context, outcome Outcome) {
	switch outcome {
	case RedirectLogin:
		c.Header("Location", LoginRoute)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":     "UNAUTHENTICATED",
			"message":  "Authentication required",
			"redirect": LoginRoute,
		})
	case RedirectUnauthorized:
		c.Header("Location", UnauthorizedRoute)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":     "FORBIDDEN",
			"message":  "You don't have permission to access this page.",
			"redirect": UnauthorizedRoute,
		})
	default:
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
