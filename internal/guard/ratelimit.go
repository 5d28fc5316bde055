package guard

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/footballcurrency/portal/internal/domain"
)

// RateLimiter implements a sliding window rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Check returns a GuardResult indicating whether the key is within rate limits.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.live(key, now)

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
			Guard:   "rate_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	return domain.GuardResult{Allowed: true}
}

// live drops entries outside the window. Caller holds mu.
func (rl *RateLimiter) live(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}

// Prune forgets keys with no hits inside the window and returns how many
// were removed.
func (rl *RateLimiter) Prune(_ context.Context) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key := range rl.windows {
		if valid := rl.live(key, now); len(valid) == 0 {
			delete(rl.windows, key)
			removed++
		} else {
			rl.windows[key] = valid
		}
	}
	return removed, nil
}

// Middleware rejects requests whose key is over the limit. Only state-changing
// methods count; GET renders the form freely.
func (rl *RateLimiter) Middleware(key func(*http.Request) string, deny func(http.ResponseWriter, *http.Request, *domain.AppError)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if res := rl.Check(r.Context(), key(r)); !res.Allowed {
				deny(w, r, domain.ErrRateLimited("Too many requests, slow down."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
