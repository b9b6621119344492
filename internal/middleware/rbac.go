package middleware

import (
	"net/http"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireRoles checks that the JWT carries one of the allowed roles.
// Must run after RequireAuth.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}

// RequireTrainee restricts a route to trainee accounts.
func RequireTrainee() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.Role != model.RoleTrainee {
			response.AbortFail(c, http.StatusForbidden, response.ErrTraineeOnly)
			return
		}
		c.Next()
	}
}

// RequireStaff restricts a route to instructor and admin accounts.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.Role != model.RoleInstructor && claims.Role != model.RoleAdmin {
			response.AbortFail(c, http.StatusForbidden, response.ErrStaffOnly)
			return
		}
		c.Next()
	}
}
