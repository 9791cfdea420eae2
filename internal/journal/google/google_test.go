package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"

	"finboard/internal/core"
)

type fakeSheets struct {
	mu       sync.Mutex
	appended [][]any
	header   [][]any
	paths    []string
}

func (f *fakeSheets) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.paths = append(f.paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		var body struct {
			Values [][]any `json:"values"`
		}
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode append body: %v", err)
			}
			f.appended = append(f.appended, body.Values...)
			_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRange":"'2024 Net Worth'!A2:F2","updatedRows":1}}`))
		case r.Method == http.MethodGet:
			resp := map[string]any{"range": "'2024 Net Worth'!A1:F1"}
			if len(f.header) > 0 {
				resp["values"] = f.header
			}
			_ = json.NewEncoder(w).Encode(resp)
		case r.Method == http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode update body: %v", err)
			}
			f.header = body.Values
			_, _ = w.Write([]byte(`{"updatedRows":1}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-id",
		SheetName:     "Net Worth",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithHTTPClient(srv.Client()),
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func testSnapshot() core.NetWorthSnapshot {
	r := core.CalculateNetWorth(core.NetWorthInput{
		Assets:      decimal.NewFromInt(5000),
		Liabilities: decimal.NewFromInt(2000),
		Goal:        decimal.NewFromInt(10000),
	})
	s := core.NewNetWorthSnapshot(r, time.Date(2024, 6, 30, 18, 5, 0, 0, time.UTC))
	s.Ref = "ref-1"
	return s
}

func TestClient_Export(t *testing.T) {
	c, fake := newTestClient(t)

	ref, err := c.Export(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if ref != "'2024 Net Worth'!A2:F2" {
		t.Errorf("ref = %q", ref)
	}
	if len(fake.appended) != 1 {
		t.Fatalf("appended rows = %d, want 1", len(fake.appended))
	}
	row := fake.appended[0]
	want := []any{"2024-06-30 18:05:00", "5000", "2000", "10000", "3000", "ref-1"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("col %d = %v, want %v", i, row[i], want[i])
		}
	}
	if !strings.Contains(fake.paths[0], "2024 Net Worth") {
		t.Errorf("append path should target the year sheet, got %s", fake.paths[0])
	}
}

func TestClient_ExportRejectsInvalidSnapshot(t *testing.T) {
	c, fake := newTestClient(t)
	s := testSnapshot()
	s.Ref = ""

	if _, err := c.Export(context.Background(), s); err == nil {
		t.Fatal("expected validation error")
	}
	if len(fake.paths) != 0 {
		t.Error("invalid snapshot must not reach the API")
	}
}

func TestClient_EnsureHeader(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if err := c.EnsureHeader(ctx, 2024); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if len(fake.header) != 1 || fake.header[0][0] != "Recorded At" {
		t.Fatalf("header not written: %+v", fake.header)
	}

	calls := len(fake.paths)
	if err := c.EnsureHeader(ctx, 2024); err != nil {
		t.Fatalf("EnsureHeader second call: %v", err)
	}
	if len(fake.paths) != calls+1 {
		t.Error("existing header should only be read")
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected credentials error, got %v", err)
	}

	_, err = New(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: "/non/existent.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected file error, got %v", err)
	}

	if _, err := New(context.Background(), Options{}, nil); err == nil {
		t.Error("expected missing spreadsheet id error")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Net Worth", 2024, "2024 Net Worth"},
		{"2023 Net Worth", 2024, "2023 Net Worth"},
		{"  Snapshots ", 2025, "2025 Snapshots"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}
