package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	APIKeyHeader     = "X-API-Key"
	APIKeyQueryParam = "api_key"
)

// APIKeyAuth checks the X-API-Key header against a bcrypt hash. Browsers cannot set headers
// on WebSocket handshakes, so the key may also come as ?api_key=.
// An empty hash leaves the console open, which is the local development setup.
func APIKeyAuth(keyHash string) gin.HandlerFunc {
	if keyHash == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	hash := []byte(keyHash)

	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			apiKey = c.Query(APIKeyQueryParam)
		}

		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		if err := bcrypt.CompareHashAndPassword(hash, []byte(apiKey)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
