package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per client key.
type limiterSet struct {
	mu      sync.Mutex
	r       rate.Limit
	b       int
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet(r rate.Limit, b int) *limiterSet {
	return &limiterSet{r: r, b: b, entries: make(map[string]*limiterEntry)}
}

func (s *limiterSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.r, s.b)}
		s.entries[key] = e
	}
	e.lastSeen = now
	s.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// prune drops buckets idle since before cutoff.
func (s *limiterSet) prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// RateLimit applies a per-IP token bucket (rps requests per second, burst b).
// Idle buckets are pruned every five minutes until ctx is done.
func RateLimit(ctx context.Context, rps float64, b int) gin.HandlerFunc {
	set := newLimiterSet(rate.Limit(rps), b)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				set.prune(now.Add(-10 * time.Minute))
			}
		}
	}()

	return func(c *gin.Context) {
		if !set.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
