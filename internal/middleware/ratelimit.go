package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/forgo/shiftboard/api/internal/model"
)

// RateLimiter implements per-client token bucket rate limiting. Each bucket
// holds up to Burst tokens and refills continuously at RPS tokens a second.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rps      float64
	burst    int
	idle     time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	RPS     float64       // Sustained requests per second (default 10)
	Burst   int           // Bucket size (default 30)
	Cleanup time.Duration // Cleanup interval for idle buckets (default 5 minutes)
	Now     func() time.Time
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 30
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rps:      cfg.RPS,
		burst:    cfg.Burst,
		idle:     cfg.Cleanup,
		now:      cfg.Now,
		stopChan: make(chan struct{}),
	}

	go rl.cleanupLoop(cfg.Cleanup)

	return rl
}

// Stop stops the rate limiter cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupIdle()
		case <-rl.stopChan:
			return
		}
	}
}

// cleanupIdle drops buckets that have refilled completely and seen no
// traffic for a full interval
func (rl *RateLimiter) cleanupIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Allow takes a token for key. It reports the tokens left and the time at
// which the bucket will be full again.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, resetTime time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: float64(rl.burst), lastSeen: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastSeen).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(rl.burst), b.tokens+elapsed*rl.rps)
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		allowed = true
	}

	missing := float64(rl.burst) - b.tokens
	resetTime = now.Add(time.Duration(missing / rl.rps * float64(time.Second)))
	return allowed, int(b.tokens), resetTime
}

// retryAfter is the number of whole seconds until one token is available
func (rl *RateLimiter) retryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return 1
	}
	wait := (1 - b.tokens) / rl.rps
	return int(math.Max(1, math.Ceil(wait)))
}

// RateLimit returns a middleware that applies rate limiting per user when
// the caller is known, otherwise per client IP
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Long-lived streams would hold a token forever
			if isEventStream(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := GetUserID(r.Context())
			if key == "" {
				key = clientIP(r)
			}

			allowed, remaining, resetTime := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				retryAfter := limiter.retryAfter(key)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from the remote address so that every
// connection from one host shares a bucket
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
