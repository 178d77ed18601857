package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

const contextIdentity = "identity"

// RequireRole admits only sessions holding one of roles. Guests get 401 with
// the login screen as redirect; other roles get 403 with their own dashboard.
// dashboard maps a role to its landing screen.
func RequireRole(dashboard func(model.Role) string, roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		role := model.RoleGuest
		if ok {
			role = sess.Role()
		}

		if role == model.RoleGuest {
			resp := newErrorResponse(c, http.StatusUnauthorized, "login required")
			resp.Redirect = dashboard(model.RoleGuest)
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
			return
		}

		if !allowed[role] {
			resp := newErrorResponse(c, http.StatusForbidden, "this screen belongs to another role")
			resp.Redirect = dashboard(role)
			c.AbortWithStatusJSON(http.StatusForbidden, resp)
			return
		}

		c.Set(contextIdentity, sess.Identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity admitted by RequireRole.
func CurrentIdentity(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(contextIdentity)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}
