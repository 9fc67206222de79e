package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/auth"
	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/constants"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
)

// RequireAuth checks for a valid bearer access token
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		actor, err := tokens.Actor(token)
		if err != nil {
			apierrors.InvalidToken(c, "")
			c.Abort()
			return
		}

		// Store the caller in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, actor.ID)
		c.Set(constants.ContextKeyUserRole, actor.Role)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetActor retrieves the authenticated caller from context
func GetActor(c *gin.Context) (authz.Actor, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return authz.Actor{}, false
	}
	role, _ := c.Get(constants.ContextKeyUserRole)
	r, ok := role.(models.UserRole)
	if !ok {
		return authz.Actor{}, false
	}
	return authz.Actor{ID: id, Role: r}, true
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
