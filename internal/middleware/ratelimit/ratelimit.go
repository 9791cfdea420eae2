package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Bucket is a named request budget shared by a group of routes.
type Bucket struct {
	Name      string
	PerWindow int
}

// Classifier maps a request to its bucket. ok=false lets the request through
// without counting it.
type Classifier func(r *http.Request) (b Bucket, ok bool)

// Config holds rate limiter configuration
type Config struct {
	Classify        Classifier
	Window          time.Duration
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64
	HitsByKind  map[string]int64
	ClientCount int64
}

// DefaultConfig limits snapshot writes to 10 per minute and other mutating
// calls to 60 per minute per client. Reads are never limited.
func DefaultConfig() Config {
	return Config{
		Classify:        DefaultClassifier(10, 60),
		Window:          time.Minute,
		IdleTTL:         10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// DefaultClassifier puts POST /snapshots in the "snapshots" bucket and every
// other non-GET, non-HEAD request in the "api" bucket.
func DefaultClassifier(snapshotsPerWindow, apiPerWindow int) Classifier {
	return func(r *http.Request) (Bucket, bool) {
		switch {
		case r.Method == http.MethodGet || r.Method == http.MethodHead:
			return Bucket{}, false
		case strings.HasPrefix(r.URL.Path, "/snapshots"):
			return Bucket{Name: "snapshots", PerWindow: snapshotsPerWindow}, true
		default:
			return Bucket{Name: "api", PerWindow: apiPerWindow}, true
		}
	}
}

// Limiter is a fixed-window limiter keyed by client and bucket.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[windowKey]*window
	hits    map[string]int64

	stop     chan struct{}
	stopOnce sync.Once
}

type windowKey struct {
	client string
	bucket string
}

type window struct {
	start time.Time
	last  time.Time
	count int
}

// NewLimiter creates a limiter and starts its cleanup goroutine. Zero config
// fields take their DefaultConfig values.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Classify == nil {
		cfg.Classify = def.Classify
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[windowKey]*window),
		hits:    make(map[string]int64),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow counts one request from client against bucket. When the budget is
// spent it returns false and how long until the window resets.
func (rl *Limiter) Allow(client string, b Bucket) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := windowKey{client: client, bucket: b.Name}
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.cfg.Window {
		rl.windows[key] = &window{start: now, last: now, count: 1}
		return true, 0
	}

	w.count++
	w.last = now
	if b.PerWindow > 0 && w.count > b.PerWindow {
		rl.hits[b.Name]++
		return false, w.start.Add(rl.cfg.Window).Sub(now)
	}
	return true, 0
}

func (rl *Limiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

// evictIdle drops windows not touched within IdleTTL and returns how many.
func (rl *Limiter) evictIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.IdleTTL)
	removed := 0
	for k, w := range rl.windows {
		if w.last.Before(cutoff) {
			delete(rl.windows, k)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of distinct clients with an open window.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.activeClientsLocked()
}

func (rl *Limiter) activeClientsLocked() int {
	seen := make(map[string]struct{}, len(rl.windows))
	for k := range rl.windows {
		seen[k.client] = struct{}{}
	}
	return len(seen)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

// GetMetrics returns current rate limiting metrics
func (rl *Limiter) GetMetrics() Metrics {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	m := Metrics{
		HitsByKind:  make(map[string]int64, len(rl.hits)),
		ClientCount: int64(rl.activeClientsLocked()),
	}
	for name, n := range rl.hits {
		m.HitsByKind[name] = n
		m.TotalHits += n
	}
	return m
}

// Middleware applies the limiter to classified requests. onLimit writes the
// 429 body; Retry-After is already set when it runs.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, limited := rl.cfg.Classify(r)
			if !limited {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := rl.Allow(extractIP(r), b)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
