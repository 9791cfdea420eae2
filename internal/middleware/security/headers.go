package security

import (
	"net/http"
	"strconv"
	"strings"
)

// Directive is one Content-Security-Policy directive and its sources.
type Directive struct {
	Name    string
	Sources []string
}

// CSP is an ordered list of directives.
type CSP []Directive

// String renders the policy in header form.
func (c CSP) String() string {
	parts := make([]string, 0, len(c))
	for _, d := range c {
		parts = append(parts, d.Name+" "+strings.Join(d.Sources, " "))
	}
	return strings.Join(parts, "; ")
}

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP CSP

	// HSTSMaxAge is sent only on TLS connections. Zero disables HSTS.
	HSTSMaxAge int

	// Static headers set on every response.
	Static map[string]string

	// NoStorePrefixes are path prefixes whose responses carry computed
	// figures and must not be cached by browsers or proxies.
	NoStorePrefixes []string
}

// DefaultHeadersConfig returns headers suited to the HTMX dashboard: scripts
// from self and unpkg, inline styles for bar widths and SVG charts.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: CSP{
			{"default-src", []string{"'self'"}},
			{"script-src", []string{"'self'", "https://unpkg.com"}},
			{"style-src", []string{"'self'", "'unsafe-inline'"}},
			{"img-src", []string{"'self'", "data:"}},
			{"connect-src", []string{"'self'"}},
			{"object-src", []string{"'none'"}},
			{"frame-ancestors", []string{"'none'"}},
			{"base-uri", []string{"'self'"}},
			{"form-action", []string{"'self'"}},
		},
		HSTSMaxAge: 31536000,
		Static: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
		NoStorePrefixes: []string{"/api/", "/ui/", "/snapshots"},
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	csp     string
	hsts    string
	static  map[string]string
	noStore []string
}

// NewHeadersMiddleware renders the configured policy once.
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{
		csp:     config.CSP.String(),
		static:  config.Static,
		noStore: config.NoStorePrefixes,
	}
	if config.HSTSMaxAge > 0 {
		h.hsts = "max-age=" + strconv.Itoa(config.HSTSMaxAge) + "; includeSubDomains"
	}
	return h
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for k, v := range h.static {
			headers.Set(k, v)
		}
		if h.csp != "" {
			headers.Set("Content-Security-Policy", h.csp)
		}
		if r.TLS != nil && h.hsts != "" {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		if h.isNoStore(r.URL.Path) {
			headers.Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) isNoStore(path string) bool {
	for _, p := range h.noStore {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// StaticAssetMiddleware marks embedded assets cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
