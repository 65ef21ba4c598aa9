package middleware

import (
	"net/http"
	"strings"

	"nodemonitor/pkg/logger"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// TokenVerifier resolves an access token to a user ID
type TokenVerifier interface {
	ParseToken(token string) (string, error)
}

// APIKeyAuth guards operator routes with a static API key. Routes are
// refused outright when no key is configured.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			logger.WarnCtx(c.Request.Context(), "admin API key not configured, refusing request")
			c.JSON(http.StatusForbidden, gin.H{"error": "admin API disabled"})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		authHeader = strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" {
			authHeader = c.GetHeader("X-API-Key")
		}

		if authHeader != apiKey {
			logger.WarnCtx(c.Request.Context(), "unauthorized request, invalid API key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// JWTAuth requires a bearer token and stores its user ID in the context.
// With allowQuery the token may also come from the "token" query parameter,
// which browsers need for websocket upgrades.
func JWTAuth(verifier TokenVerifier, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			c.Abort()
			return
		}

		userID, err := verifier.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user's ID
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
