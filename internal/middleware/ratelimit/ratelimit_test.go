package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(snapshots, api int) (*Limiter, *time.Time) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{
		Classify:        DefaultClassifier(snapshots, api),
		CleanupInterval: time.Hour,
	})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(2, 2)
	defer rl.Stop()
	api := Bucket{Name: "api", PerWindow: 2}

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("a", api); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}

	*now = now.Add(15 * time.Second)
	ok, wait := rl.Allow("a", api)
	if ok {
		t.Fatal("third request in the window should be limited")
	}
	if wait != 45*time.Second {
		t.Errorf("wait = %v, want 45s", wait)
	}
	if ok, _ := rl.Allow("b", api); !ok {
		t.Error("other clients are independent")
	}

	*now = now.Add(46 * time.Second)
	if ok, _ := rl.Allow("a", api); !ok {
		t.Error("a new window should reset the counter")
	}
	m := rl.GetMetrics()
	if m.TotalHits != 1 || m.HitsByKind["api"] != 1 {
		t.Errorf("metrics = %+v, want one api hit", m)
	}
}

func TestLimiter_BucketsAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(1, 5)
	defer rl.Stop()
	snaps := Bucket{Name: "snapshots", PerWindow: 1}
	api := Bucket{Name: "api", PerWindow: 5}

	if ok, _ := rl.Allow("a", snaps); !ok {
		t.Fatal("first snapshot should pass")
	}
	if ok, _ := rl.Allow("a", snaps); ok {
		t.Error("second snapshot should be limited")
	}
	if ok, _ := rl.Allow("a", api); !ok {
		t.Error("api budget must not be spent by snapshots")
	}
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() = %d, want 1", got)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	rl, now := newTestLimiter(5, 5)
	defer rl.Stop()
	api := Bucket{Name: "api", PerWindow: 5}

	rl.Allow("a", api)
	*now = now.Add(11 * time.Minute)
	rl.Allow("b", api)

	if removed := rl.evictIdle(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients() = %d, want 1", rl.ActiveClients())
	}
}

func TestDefaultClassifier(t *testing.T) {
	classify := DefaultClassifier(10, 60)
	tests := []struct {
		method, path string
		want         string
		limited      bool
	}{
		{http.MethodGet, "/budget", "", false},
		{http.MethodHead, "/networth", "", false},
		{http.MethodPost, "/snapshots", "snapshots", true},
		{http.MethodPost, "/api/networth", "api", true},
		{http.MethodDelete, "/budget", "api", true},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			b, ok := classify(httptest.NewRequest(tt.method, tt.path, nil))
			if ok != tt.limited || b.Name != tt.want {
				t.Errorf("classify = (%q, %v), want (%q, %v)", b.Name, ok, tt.want, tt.limited)
			}
		})
	}
}

func TestLimiter_MiddlewareOnlyLimitsWrites(t *testing.T) {
	rl, _ := newTestLimiter(1, 60)
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/budget", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET should never be limited, got %d", rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshots", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first POST = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshots", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second POST = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}
