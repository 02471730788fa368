package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the bearer token into (userId, username, role) on
// the request context. Missing credentials pass through untouched; the
// per-route guards below decide whether that is acceptable.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = utils.SetUserIdInContext(ctx, customClaim.ID)
		ctx = utils.SetUsernameInContext(ctx, customClaim.Username)
		ctx = utils.SetUserRoleInContext(ctx, customClaim.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects requests that never presented a valid token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOwner guards the owner-only routes. Non-owners get 403 without any
// hint about the resource behind the route.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		roleStr, _ := utils.GetUserRoleFromContext(c.Request.Context())
		role, err := models.ParseUserRole(roleStr)
		if err != nil || !role.IsOwner() {
			c.JSON(http.StatusForbidden, gin.H{"error": "owner role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
