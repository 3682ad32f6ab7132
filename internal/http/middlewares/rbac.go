package middlewares

import (
	"net/http"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required user.RoleClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := AccountFromContext(c)

		if !ok {
			abortJSON(c, http.StatusUnauthorized, "no_token", msgNoToken)
			return
		}
		if acc.RoleType != required {
			abortJSON(c, http.StatusForbidden, "forbidden", "Insufficient role")
			return
		}
		c.Next()
	}
}
