package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter caps requests per client IP over a rolling window. Used to
// throttle certificate verification so lookups cannot be farmed.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}

	// Cleanup goroutine
	go func() {
		for {
			time.Sleep(window)
			rl.mu.Lock()
			for ip, times := range rl.attempts {
				if len(times) == 0 || rl.now().Sub(times[len(times)-1]) > window {
					delete(rl.attempts, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

// Allow records an attempt for key and reports whether it is within the
// limit. Attempts older than the window fall out of consideration.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.attempts[key]
	fresh := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.attempts[key] = fresh
		return false
	}

	rl.attempts[key] = append(fresh, now)
	return true
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
