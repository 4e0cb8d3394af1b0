package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, d time.Duration) (*Limiter, *fakeClock) {
	l := New(limit, d)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l.now = clock.Now
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th attempt should be limited")
	}
	if !l.Allow("other") {
		t.Error("other keys keep their own window")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	defer l.Close()

	if !l.Allow("k") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second attempt should be limited")
	}
	clock.Advance(time.Minute + time.Second)
	if !l.Allow("k") {
		t.Error("attempt after window should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	defer l.Close()

	l.Allow("k")
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("attempt after Reset should be allowed")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(0, time.Minute)
	defer l.Close()
	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatal("limit 0 should never limit")
		}
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)
	defer l.Close()

	l.Allow("a")
	clock.Advance(30 * time.Second)
	l.Allow("b")
	clock.Advance(45 * time.Second)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows["a"]; ok {
		t.Error("expired window a should be swept")
	}
	if _, ok := l.windows["b"]; !ok {
		t.Error("live window b should survive")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(50, time.Minute)
	defer l.Close()

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("k") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}

func TestLimiter_CloseTwice(t *testing.T) {
	l := New(1, time.Minute)
	l.Close()
	l.Close()
}

func TestLoginLimiter_NormalizesEmail(t *testing.T) {
	ll := NewLoginLimiter(2, time.Minute)
	defer ll.Close()

	if !ll.Allow("John@Test.com") || !ll.Allow(" john@test.com ") {
		t.Fatal("first two attempts should be allowed")
	}
	if ll.Allow("JOHN@TEST.COM") {
		t.Error("third attempt for same account should be limited")
	}
	if !ll.Allow("jane@test.com") {
		t.Error("other account should not be limited")
	}

	ll.ResetEmail("john@test.com")
	if !ll.Allow("john@test.com") {
		t.Error("attempt after ResetEmail should be allowed")
	}
}

func TestLoginLimiter_Nil(t *testing.T) {
	var ll *LoginLimiter
	if !ll.Allow("a@b.com") {
		t.Error("nil limiter should allow")
	}
	ll.ResetEmail("a@b.com")
	ll.Close()
}
