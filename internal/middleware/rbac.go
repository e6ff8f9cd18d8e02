package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/careconnect/careconnect-api/internal/models"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
	"github.com/careconnect/careconnect-api/pkg/response"
)

// RequireRoles blocks callers whose role is not in the allowed set. Manager
// routes additionally require a club in the token so scoping never falls
// through to an empty location.
func RequireRoles(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowedRoles[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		if claims.Role == models.RoleManager && claims.CC == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "manager token missing club assignment"))
			c.Abort()
			return
		}
		c.Next()
	}
}
