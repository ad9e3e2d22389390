package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/zianad/idarati-api/internal/models"
	appErrors "github.com/zianad/idarati-api/pkg/errors"
	"github.com/zianad/idarati-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// TenantAccess blocks requests whose claims do not cover the :schoolId in the
// route. Super admins pass for any school.
func TenantAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		schoolID := c.Param("schoolId")
		if schoolID == "" || !claims.CanAccessSchool(schoolID) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no access to this school"))
			c.Abort()
			return
		}
		c.Next()
	}
}
