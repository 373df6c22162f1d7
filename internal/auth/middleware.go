package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	contextUserIDKey = "auth_user_id"
	contextEmailKey  = "auth_email"
)

// Middleware validates the bearer session token. An expired or invalid
// token yields 401; the client is expected to drop its session and
// return to the marketplace.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}

		claims, err := service.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextEmailKey, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user's id, or uuid.Nil outside an
// authenticated route.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(contextUserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// Email returns the authenticated user's email, or ""
func Email(c *gin.Context) string {
	return c.GetString(contextEmailKey)
}
