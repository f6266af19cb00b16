package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/metrics"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Rate limit tiers
const (
	// login / registration / order placement
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// everything else
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter buckets requests per identity and tier. Buckets idle longer
// than three minutes are swept.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	stop     chan struct{}
	denied   metrics.Counter
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Close() {
	close(rl.stop)
}

// Denied reports how many requests have been rejected since startup.
func (rl *RateLimiter) Denied() uint64 {
	return rl.denied.Load()
}

func (rl *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		rl.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Strict applies the tight tier, for login and order placement.
func (rl *RateLimiter) Strict() gin.HandlerFunc {
	return rl.middleware(limitStrict, burstStrict, "strict")
}

// General is the default tier.
func (rl *RateLimiter) General() gin.HandlerFunc {
	return rl.middleware(limitGeneral, burstGeneral, "general")
}

func (rl *RateLimiter) middleware(limit rate.Limit, burst int, tier string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var who string
		if id, ok := identity.FromContext(c.Request.Context()); ok {
			who = id.Key()
		} else {
			who = "ip:" + c.ClientIP()
		}

		// same caller gets separate quotas per tier
		key := fmt.Sprintf("%s:%s", who, tier)

		if !rl.getVisitor(key, limit, burst).Allow() {
			rl.denied.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": http.StatusText(http.StatusTooManyRequests),
			})
			return
		}

		c.Next()
	}
}
