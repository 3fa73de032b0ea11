package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/tokens"
)

// AdminAuth returns a Gin middleware that verifies HS256 admin bearer tokens
// and stores their claims on the request context.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		claims, err := tokens.VerifyAdminToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("claims", map[string]interface{}(claims))
		c.Next()
	}
}
