package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier is what RequireUser needs from the token layer.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// RequireUser gates a route group behind a valid bearer token and attaches
// the verified identity to the request context.
func RequireUser(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization header"})
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		setCurrentUser(c, identity)
		c.Next()
	}
}
