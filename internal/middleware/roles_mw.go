package middleware

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware creates a middleware admitting only the given roles.
// The role comes from the coordinator's cache with a database fallback,
// not from the token, so a pushed role change takes effect without a
// token reissue.
func RoleMiddleware(auth service.AuthService, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get(AuthUserKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User not found in context, ensure JWT middleware runs first"})
			return
		}
		userID, ok := userIDVal.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid user ID type in context"})
			return
		}

		userRole := auth.CurrentRole(c.Request.Context(), userID)

		isAllowed := false
		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}

		c.Next()
	}
}

// AdminMiddleware checks if the user is an admin
func AdminMiddleware(auth service.AuthService) gin.HandlerFunc {
	return RoleMiddleware(auth, model.RoleAdmin)
}

// UserMiddleware allows both users and admins
func UserMiddleware(auth service.AuthService) gin.HandlerFunc {
	return RoleMiddleware(auth, model.RoleUser, model.RoleAdmin)
}
