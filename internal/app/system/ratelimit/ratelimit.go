// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Limiter provides rate limiting using a fixed window per key.
// It is safe for concurrent use. A limit <= 0 disables limiting.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter and starts its cleanup goroutine.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
// Call Close to stop the cleanup goroutine.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if limit > 0 && duration > 0 {
		go l.cleanupLoop(duration * 2)
	}
	return l
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Reset clears the rate limit for a specific key.
func (l *Limiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Close() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stop) })
}

// sweep removes expired entries.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// LoginLimiter rate limits login attempts per account. Keys are emails,
// trimmed and lowercased so "A@x.com " and "a@x.com" share one window.
type LoginLimiter struct {
	emails *Limiter
}

// NewLoginLimiter creates a login limiter allowing limit attempts per email per window.
func NewLoginLimiter(limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{emails: New(limit, window)}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Allow reports whether another login attempt for email may proceed.
// A nil LoginLimiter allows everything.
func (ll *LoginLimiter) Allow(email string) bool {
	if ll == nil {
		return true
	}
	return ll.emails.Allow(emailKey(email))
}

// ResetEmail clears the rate limit for a specific email after successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if ll == nil || email == "" {
		return
	}
	ll.emails.Reset(emailKey(email))
}

// Close stops the underlying limiter's cleanup goroutine.
func (ll *LoginLimiter) Close() {
	if ll == nil {
		return
	}
	ll.emails.Close()
}
