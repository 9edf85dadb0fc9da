package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// RateLimiter caps timer mutations per caller over a fixed window. Callers
// are keyed by authenticated user ID so one user cannot starve another
// behind a shared NAT; unauthenticated requests fall back to the remote
// address.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}

	go func() {
		for {
			time.Sleep(window)
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if time.Since(b.windowStart) > window {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

func (rl *RateLimiter) key(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != uuid.Nil {
		return "user:" + userID.String()
	}
	return "addr:" + r.RemoteAddr
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)
		now := time.Now()

		rl.mu.Lock()
		b, exists := rl.buckets[key]
		if !exists || now.Sub(b.windowStart) > rl.window {
			rl.buckets[key] = &bucket{count: 1, windowStart: now}
			rl.mu.Unlock()
			next.ServeHTTP(w, r)
			return
		}

		b.count++
		count := b.count
		retryAfter := rl.window - now.Sub(b.windowStart)
		rl.mu.Unlock()

		if count > rl.limit {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
