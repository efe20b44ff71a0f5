package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitRouter(t *testing.T, rps float64, b int) *gin.Engine {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	eng := gin.New()
	eng.Use(RateLimit(ctx, rps, b))
	eng.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return eng
}

func hit(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	// near-zero refill
	r := newRateLimitRouter(t, 0.001, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.1.1"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.1.1"))
}

func TestRateLimit_BucketsArePerIP(t *testing.T) {
	r := newRateLimitRouter(t, 0.001, 1)
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.1.1.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.1.1.1"))
}

func TestLimiterSet_Refills(t *testing.T) {
	set := newLimiterSet(1, 1)
	now := time.Now()
	assert.True(t, set.allow("a", now))
	assert.False(t, set.allow("a", now))
	assert.True(t, set.allow("a", now.Add(1100*time.Millisecond)))
}

func TestLimiterSet_Prune(t *testing.T) {
	set := newLimiterSet(1, 1)
	now := time.Now()
	set.allow("old", now.Add(-time.Hour))
	set.allow("fresh", now)

	assert.Equal(t, 1, set.prune(now.Add(-10*time.Minute)))
	assert.Len(t, set.entries, 1)
	assert.Contains(t, set.entries, "fresh")
}
