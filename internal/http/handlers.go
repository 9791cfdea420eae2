package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.journal == nil:
		checks["journal"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	case s.opts.Ready != nil:
		if err := s.opts.Ready(ctx); err != nil {
			checks["journal"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["journal"] = "ok"
		}
	default:
		checks["journal"] = "ok"
	}

	checks["cache"] = map[string]interface{}{
		"networth_entries":  s.netWorthCache.Size(),
		"portfolio_entries": s.portfolioCache.Size(),
		"budget_entries":    s.budgetCache.Size(),
		"status":            "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	calculations := atomic.LoadInt64(&s.appMetrics.calculations)
	snapshots := atomic.LoadInt64(&s.appMetrics.snapshotsRecorded)
	cacheHits := atomic.LoadInt64(&s.appMetrics.cacheHits)
	cacheMisses := atomic.LoadInt64(&s.appMetrics.cacheMisses)
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Total responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP calculations_total Total dashboard calculations served\n")
	fmt.Fprintf(w, "# TYPE calculations_total counter\n")
	fmt.Fprintf(w, "calculations_total %d\n\n", calculations)

	fmt.Fprintf(w, "# HELP snapshots_recorded_total Total net worth snapshots recorded\n")
	fmt.Fprintf(w, "# TYPE snapshots_recorded_total counter\n")
	fmt.Fprintf(w, "snapshots_recorded_total %d\n\n", snapshots)

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"networth\"} %d\n", s.netWorthCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"portfolio\"} %d\n", s.portfolioCache.Size())
	fmt.Fprintf(w, "cache_entries{type=\"budget\"} %d\n\n", s.budgetCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n", rateLimitMetrics.TotalHits)
	buckets := make([]string, 0, len(rateLimitMetrics.HitsByKind))
	for name := range rateLimitMetrics.HitsByKind {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)
	for _, name := range buckets {
		fmt.Fprintf(w, "rate_limit_hits_total{bucket=%q} %d\n", name, rateLimitMetrics.HitsByKind[name])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/networth", http.StatusFound)
}

// netWorth computes the report through the result cache.
func (s *Server) netWorth(ctx context.Context, in core.NetWorthInput) core.NetWorthReport {
	key := cache.Key(log.ComponentNetWorth, in.Assets.String(), in.Liabilities.String(), in.Goal.String())
	report, hit, _ := cache.GetOrCompute[core.NetWorthReport](s.netWorthCache, key, func() (core.NetWorthReport, error) {
		return core.CalculateNetWorth(in), nil
	})
	s.countCalculation(hit)
	s.structured.LogCalculation(ctx, log.ComponentNetWorth, hit, log.LogFields{
		log.FieldNetWorth: report.NetWorth.String(),
	})
	return report
}

// portfolio builds the series through the result cache. Failed builds are
// not cached.
func (s *Server) portfolio(ctx context.Context, in core.PortfolioInput) (core.PortfolioSeries, error) {
	key := cache.Key(log.ComponentPortfolio, in.InitialInvestment.String(), in.StartDate.String(), in.Contributions)
	series, hit, err := cache.GetOrCompute[core.PortfolioSeries](s.portfolioCache, key, func() (core.PortfolioSeries, error) {
		return core.BuildPortfolio(in)
	})
	if err != nil {
		return series, err
	}
	s.countCalculation(hit)
	s.structured.LogCalculation(ctx, log.ComponentPortfolio, hit, log.LogFields{
		log.FieldPeriods: series.Len(),
	})
	return series, nil
}

// budget aggregates the budget through the result cache.
func (s *Server) budget(ctx context.Context, in core.BudgetInput) core.BudgetSummary {
	amounts := make([]string, len(in.Amounts))
	for i, a := range in.Amounts {
		amounts[i] = a.String()
	}
	key := cache.Key(log.ComponentBudget, in.Income.String(), string(in.Policy),
		strings.Join(in.Categories, "\x1e"), strings.Join(amounts, "\x1e"))
	summary, hit, _ := cache.GetOrCompute[core.BudgetSummary](s.budgetCache, key, func() (core.BudgetSummary, error) {
		return core.Aggregate(in), nil
	})
	s.countCalculation(hit)
	s.structured.LogCalculation(ctx, log.ComponentBudget, hit, log.LogFields{
		log.FieldCategories: len(summary.Rows),
		log.FieldDuplicates: len(summary.Duplicates),
	})
	return summary
}

func (s *Server) countCalculation(hit bool) {
	atomic.AddInt64(&s.appMetrics.calculations, 1)
	if hit {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
	} else {
		atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
	}
}

// today returns the current calendar day in UTC.
func (s *Server) today() core.Date {
	return core.DateOf(s.opts.Now())
}

// render executes a template into a buffer so that a failure never leaves a
// half-written response.
func (s *Server) render(ctx context.Context, name string, data interface{}) (string, error) {
	if s.templates == nil {
		return "", fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(ctx, "Template execution error",
			"error", err,
			"template", name,
			log.FieldComponent, log.ComponentTemplate,
			log.FieldOperation, log.OpRender)
		return "", err
	}
	return buf.String(), nil
}

// writeTemplate renders name with the given status, or a 500 on failure.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	html, err := s.render(r.Context(), name, data)
	if err != nil {
		InternalServerError("Error rendering page").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(html).Write(w)
}
