package finctl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finboard/internal/core"
)

func writePrefs(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPrefs(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Prefs
		wantErr bool
	}{
		{
			name: "partial file keeps defaults",
			body: "currency = \"EUR\"\n",
			want: Prefs{Currency: "EUR", DuplicatePolicy: string(core.LastWriteWins), DefaultCategories: core.DefaultExpenseCategories},
		},
		{
			name: "full file",
			body: "currency = \"GBP\"\nduplicate_policy = \"sum\"\ndefault_categories = \"Rent,Food\"\n",
			want: Prefs{Currency: "GBP", DuplicatePolicy: "sum", DefaultCategories: "Rent,Food"},
		},
		{name: "unknown currency", body: "currency = \"XYZ\"\n", wantErr: true},
		{name: "unknown policy", body: "duplicate_policy = \"first\"\n", wantErr: true},
		{name: "unknown key", body: "theme = \"dark\"\n", wantErr: true},
		{name: "malformed", body: "currency = \n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadPrefs(writePrefs(t, tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadPrefs() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPrefs() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LoadPrefs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadPrefsMissingFile(t *testing.T) {
	got, err := LoadPrefs(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadPrefs() error = %v", err)
	}
	if got != DefaultPrefs() {
		t.Errorf("LoadPrefs() = %+v, want defaults", got)
	}
}

func TestPrefsPathHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	want := filepath.Join(dir, "finboard", "finctl.toml")
	if got := PrefsPath(); got != want {
		t.Errorf("PrefsPath() = %q, want %q", got, want)
	}
}

func TestPrefsDriveBudgetCommand(t *testing.T) {
	path := writePrefs(t, "duplicate_policy = \"sum\"\ndefault_categories = \"Rent,Rent\"\n")

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--config", path, "budget", "-a", "100,300"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, w := range []string{"$400.00", "(amounts added)"} {
		if !strings.Contains(out.String(), w) {
			t.Errorf("output missing %q:\n%s", w, out.String())
		}
	}
}

func TestPrefsPolicyFallback(t *testing.T) {
	if got := (Prefs{DuplicatePolicy: "bogus"}).Policy(); got != core.LastWriteWins {
		t.Errorf("Policy() = %q, want last-write-wins", got)
	}
}
