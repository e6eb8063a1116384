package bootstrap

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxProjectBodyBytes caps project-route request bodies. Inline thumbnail
// uploads arrive base64-encoded inside the JSON payload, so the cap has to
// be generous.
const maxProjectBodyBytes int64 = 50 << 20

// MaxBodyBytes rejects requests whose declared length exceeds limit and wraps
// the body so chunked requests cannot stream past it either. An overrun
// mid-read surfaces to the handler as a bind error.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
