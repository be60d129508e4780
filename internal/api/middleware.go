package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/po-tracker/internal/auth"
	"gitlab.com/yelinaung/po-tracker/internal/logger"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

const sessionKey = "session"

// authMiddleware validates the bearer token and stores the decoded
// session for downstream handlers.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must start with Bearer"})
			return
		}

		session, err := auth.ValidateToken([]byte(s.cfg.JWTSecret), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(sessionKey, *session)
		c.Next()
	}
}

// staffOnlyWrites keeps guest sessions read-only. Non-GET requests from a
// guest are rejected before reaching any handler.
func staffOnlyWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFrom(c)
		if c.Request.Method != http.MethodGet && session.IsGuest() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "guests have read-only access"})
			return
		}
		c.Next()
	}
}

// requireRole gates a route to sessions holding at least one of the given
// roles. The core packages re-check permissions; this is the outer gate.
func requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFrom(c)
		for _, role := range roles {
			if session.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func sessionFrom(c *gin.Context) models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}
	}
	return v.(models.Session)
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
