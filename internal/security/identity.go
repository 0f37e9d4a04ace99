package security

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderUserID carries the requesting user's identifier.
	HeaderUserID = "X-User-ID"
	// ContextKeyUserID is the gin context key for the requesting user ID.
	ContextKeyUserID = "userID"
)

// IdentityMiddleware reads the requesting user from the X-User-ID header.
// Requests without the header pass through anonymously; a header that is not
// a UUID is rejected.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Info("Identity rejected: malformed user id", "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + HeaderUserID + " header"})
			return
		}
		c.Set(ContextKeyUserID, id)
		c.Next()
	}
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderUserID + " header"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the requesting user ID from the gin context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
