// Package http serves the finance dashboard: full pages, HTMX partials, a
// small JSON API and the snapshot journal endpoints.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/journal"
	"finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	appweb "finboard/web"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Currency          string
	DuplicatePolicy   core.DuplicatePolicy
	DefaultCategories string

	CacheSize int
	CacheTTL  time.Duration

	// Ready reports whether the journal backend can serve requests.
	Ready func(ctx context.Context) error

	Logger *log.Logger
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Currency == "" || !core.KnownCurrency(o.Currency) {
		o.Currency = core.DefaultCurrency
	}
	if o.DuplicatePolicy == "" {
		o.DuplicatePolicy = core.LastWriteWins
	}
	if o.DefaultCategories == "" {
		o.DefaultCategories = core.DefaultExpenseCategories
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 100
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = log.New(log.DefaultConfig())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Server struct {
	http.Server
	templates *template.Template
	journal   journal.Journal
	opts      Options

	logger     *log.Logger
	structured *log.StructuredLogger

	// Results are pure functions of their inputs and are never invalidated.
	netWorthCache  *cache.LRUCache[core.NetWorthReport]
	portfolioCache *cache.LRUCache[core.PortfolioSeries]
	budgetCache    *cache.LRUCache[core.BudgetSummary]
	cacheManager   *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// appMetrics holds counters read by the /metrics endpoint.
type appMetrics struct {
	uptime            time.Time
	calculations      int64
	snapshotsRecorded int64
	cacheHits         int64
	cacheMisses       int64
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, j journal.Journal, opts Options) *Server {
	opts = opts.withDefaults()
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		journal:          j,
		opts:             opts,
		logger:           logger,
		structured:       log.NewStructuredLogger(logger),
		netWorthCache:    cache.NewLRUCache[core.NetWorthReport](opts.CacheSize, opts.CacheTTL),
		portfolioCache:   cache.NewLRUCache[core.PortfolioSeries](opts.CacheSize, opts.CacheTTL),
		budgetCache:      cache.NewLRUCache[core.BudgetSummary](opts.CacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(opts.Logger.WithComponent(log.ComponentCache).Logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		securityDetector: security.NewDetector(opts.Logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(opts.Logger, s.securityDetector.ExtractClientIP)

	s.cacheManager.Register(s.netWorthCache)
	s.cacheManager.Register(s.portfolioCache)
	s.cacheManager.Register(s.budgetCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs(opts.Currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", "error", err, log.FieldOperation, log.OpStartup)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Pages
	mux.HandleFunc("/networth", s.handleNetWorthPage)
	mux.HandleFunc("/portfolio", s.handlePortfolioPage)
	mux.HandleFunc("/budget", s.handleBudgetPage)

	// UI partials
	mux.HandleFunc("/ui/networth", s.handleNetWorthPartial)
	mux.HandleFunc("/ui/portfolio", s.handlePortfolioPartial)
	mux.HandleFunc("/ui/budget", s.handleBudgetPartial)
	mux.HandleFunc("/ui/snapshots", s.handleSnapshotsPartial)

	// Snapshot journal
	mux.HandleFunc("/snapshots", s.handleRecordSnapshot)

	// JSON API
	mux.HandleFunc("/api/networth", s.handleNetWorthAPI)
	mux.HandleFunc("/api/portfolio", s.handlePortfolioAPI)
	mux.HandleFunc("/api/budget", s.handleBudgetAPI)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = s.securityDetector.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Too many requests, please slow down").
		BodyString("Rate limit exceeded. Please try again later.").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
