package cache

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *time.Time) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](size, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}

	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("overwrite failed, got %q", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a was recently used and should remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, now := newTestCache(10, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	*now = now.Add(2 * time.Minute)
	c.Set("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Size != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestGetOrCompute(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	calls := 0
	compute := func() (string, error) {
		calls++
		return "value", nil
	}

	v, hit, err := GetOrCompute[string](c, "k", compute)
	if err != nil || hit || v != "value" {
		t.Fatalf("first call = %q, %v, %v", v, hit, err)
	}
	v, hit, _ = GetOrCompute[string](c, "k", compute)
	if !hit || v != "value" || calls != 1 {
		t.Errorf("second call = %q hit=%v calls=%d", v, hit, calls)
	}

	boom := errors.New("boom")
	_, _, err = GetOrCompute[string](c, "bad", func() (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("errors must not be cached")
	}
}

func TestKey(t *testing.T) {
	if Key("networth", "5000", "2000") == Key("budget", "5000", "2000") {
		t.Error("keys for different pages should differ")
	}
	if Key("a", "bc") == Key("ab", "c") {
		t.Error("part boundaries should be part of the key")
	}
	if Key("x") != Key("x") {
		t.Error("key must be deterministic")
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](50, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := Key("k", string(rune('a'+j%26)))
				c.Set(key, n)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Size() > 50 {
		t.Errorf("Size() = %d exceeds max", c.Size())
	}
}

func TestManager_Sweep(t *testing.T) {
	c, now := newTestCache(4, time.Second)
	c.Set("a", "1")
	*now = now.Add(time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
