package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](maxSize, ttl)
	c.now = clk.Now
	return c, clk
}

func TestLRUCapacityEviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	var evicted []string
	c.OnEvict(func(key string, _ int) { evicted = append(evicted, key) })

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a present")
	}
	c.Set("c", 3) // b is least recently used

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v, want [b]", evicted)
	}
}

func TestLRUExpiryAndSlidingTTL(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clk.Advance(40 * time.Second)
	if _, ok := c.Get("a"); !ok { // refreshes a
		t.Fatalf("expected a present")
	}
	clk.Advance(40 * time.Second)

	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired = %d, want 1", removed)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b expired")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a kept by sliding ttl, got %v %v", v, ok)
	}
}

func TestLRUDeleteSkipsCallback(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	called := false
	c.OnEvict(func(string, int) { called = true })
	c.Set("a", 1)
	c.Delete("a")
	if called {
		t.Fatalf("delete must not invoke eviction callback")
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d, want 0", c.Size())
	}
}

func TestManagerCleanNow(t *testing.T) {
	c, clk := newTestCache(10, time.Second)
	c.Set("a", 1)
	clk.Advance(2 * time.Second)

	m := NewManager(nil)
	m.Register("sessions", c)
	got := m.CleanNow()
	if got["sessions"] != 1 {
		t.Fatalf("CleanNow = %v, want sessions:1", got)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop() // second stop is a no-op
}
