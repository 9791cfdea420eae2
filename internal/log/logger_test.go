package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentBudget, Output: &buf})

	logger.Info("aggregated", FieldCategories, 3)

	out := buf.String()
	if !strings.Contains(out, "component=budget") {
		t.Errorf("expected component attribute, got %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Errorf("component should be logged once, got %q", out)
	}
	if logger.Component() != ComponentBudget {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message missing")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	ctx := context.Background()

	sl.LogSnapshotRecorded(ctx, "mem:1", 0, "3000")
	sl.LogError(ctx, "export failed", errors.New("boom"), OpExport, nil)
	sl.LogCalculation(ctx, "networth", true, nil)

	out := buf.String()
	for _, want := range []string{"snapshot_ref=mem:1", "net_worth=3000", "error=boom", "operation=export", "cache_hit=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "snapshot_id") {
		t.Error("zero snapshot id should be omitted")
	}
}

func TestMiddleware_FromContext(t *testing.T) {
	logger := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	var got *Logger

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("expected http logger in context, got %+v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("missing logger should fall back to default")
	}
}

func TestLogger_WithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf}).With(FieldRequestID, "req_1")

	logger.WithComponent(ComponentCache).Info("evicted")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=cache") {
		t.Errorf("expected a single cache component, got %q", out)
	}
	if !strings.Contains(out, "request_id=req_1") {
		t.Errorf("attributes added with With should survive, got %q", out)
	}
}
