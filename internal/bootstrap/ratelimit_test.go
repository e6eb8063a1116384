package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimit(1, 2), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"message":"Too many requests"}`, rr.Body.String())
}

func TestEvictIdleDropsStaleEntries(t *testing.T) {
	now := time.Now()
	limiters := map[string]*ipLimiter{
		"10.0.0.1": {lastSeen: now.Add(-2 * limiterIdleAfter)},
		"10.0.0.2": {lastSeen: now.Add(-time.Second)},
	}

	evictIdle(limiters, now)

	assert.NotContains(t, limiters, "10.0.0.1")
	assert.Contains(t, limiters, "10.0.0.2")
}
