package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"finboard/internal/log"
)

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		level     string
		component string
		wantComp  string
		debugOn   bool
	}{
		{level: "debug", component: log.ComponentWorker, wantComp: log.ComponentWorker, debugOn: true},
		{level: "info", component: "", wantComp: log.ComponentApp},
		{level: "bogus", component: log.ComponentHTTP, wantComp: log.ComponentHTTP},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := SetupLogger(tt.level, tt.component)
			if logger.Component() != tt.wantComp {
				t.Errorf("Component() = %q, want %q", logger.Component(), tt.wantComp)
			}
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FINBOARD_TEST_VAR=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("FINBOARD_TEST_VAR", "")
	os.Unsetenv("FINBOARD_TEST_VAR")

	LoadEnvFile()

	if got := os.Getenv("FINBOARD_TEST_VAR"); got != "from-dotenv" {
		t.Errorf("FINBOARD_TEST_VAR = %q, want from-dotenv", got)
	}
}
