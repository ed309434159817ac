package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// InvalidAuthRateLimiter throttles failed authentication per client IP:
// a burst of 5, refilled at one attempt every 12 seconds.
type InvalidAuthRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInvalidAuthRateLimiter() *InvalidAuthRateLimiter {
	return &InvalidAuthRateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Every(12 * time.Second),
		burst:    5,
		idle:     5 * time.Minute,
	}
}

// Allow records an invalid attempt from ip and reports whether it is still
// within budget.
func (r *InvalidAuthRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.evict(now)

	l, ok := r.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[ip] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// evict drops limiters idle for longer than r.idle. Caller holds r.mu.
func (r *InvalidAuthRateLimiter) evict(now time.Time) {
	for ip, l := range r.limiters {
		if now.Sub(l.lastSeen) > r.idle {
			delete(r.limiters, ip)
		}
	}
}
