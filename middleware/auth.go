package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/questd/config"
)

const PlayerIDKey = "player_id"

// Auth validates the Bearer JWT and stores the player id on the context.
func Auth(sec config.SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(PlayerIDKey, claims.PlayerID)
		c.Next()
	}
}

// GetPlayerID returns the authenticated player id, or 0.
func GetPlayerID(c *gin.Context) int64 {
	if v, exists := c.Get(PlayerIDKey); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// AdminAuth checks the X-Admin-Key header. An empty adminKey disables every
// route behind it (503) so a deployment without a key is never left open.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
