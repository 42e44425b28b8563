package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a per-client fixed window rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	count int
	reset time.Time
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// NewRateLimiter creates a limiter admitting limit requests per period and
// client.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		max:     limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records a request of key and reports whether it is admitted.
func (rl *RateLimiter) Allow(key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.windows[key]
	if !exists || now.After(w.reset) {
		w = &window{count: 1, reset: now.Add(rl.period)}
		rl.windows[key] = w
		return Decision{Allowed: true, Limit: rl.max, Remaining: rl.max - 1, Reset: w.reset}
	}

	if w.count >= rl.max {
		return Decision{Allowed: false, Limit: rl.max, Remaining: 0, Reset: w.reset}
	}

	w.count++
	return Decision{Allowed: true, Limit: rl.max, Remaining: max(rl.max-w.count, 0), Reset: w.reset}
}

// StartCleanup spawns a goroutine that removes expired windows every
// interval. Returns a cancel function that stops the cleanup goroutine.
func (rl *RateLimiter) StartCleanup(interval time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.sweep()
			}
		}
	}()
	return cancel
}

// sweep removes windows whose reset time has passed.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, w := range rl.windows {
		if now.After(w.reset) {
			delete(rl.windows, key)
		}
	}
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// SetHeaders writes the X-RateLimit headers of d. Reset is in unix
// milliseconds.
func (d Decision) SetHeaders(h http.Header) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.UnixMilli(), 10))
}

// ClientKey identifies the client of r: the first X-Forwarded-For entry,
// then X-Real-IP, then the host of the remote address.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}
