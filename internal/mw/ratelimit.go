package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// How long an idle client keeps its token bucket before it is evicted.
const limiterTTL = 10 * time.Minute

// ipLimiters keeps one token bucket per client IP. Buckets expire after
// limiterTTL of inactivity so the map does not grow for the process
// lifetime; an evicted client simply starts over with a full bucket.
type ipLimiters struct {
	mu      sync.Mutex
	buckets *cache.Cache
	r       rate.Limit
	b       int
}

func newIPLimiters(r rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{
		buckets: cache.New(limiterTTL, 2*limiterTTL),
		r:       r,
		b:       burst,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if hit, ok := l.buckets.Get(ip); ok {
		bucket := hit.(*rate.Limiter)
		l.buckets.SetDefault(ip, bucket) // slide the expiry
		return bucket
	}
	bucket := rate.NewLimiter(l.r, l.b)
	l.buckets.SetDefault(ip, bucket)
	return bucket
}

// RateLimiter is a middleware enforcing a per-IP request rate.
func RateLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	limiters := newIPLimiters(r, burst)
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
