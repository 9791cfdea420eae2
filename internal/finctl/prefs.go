package finctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"finboard/internal/core"
)

// Prefs holds the optional finctl.toml preferences.
type Prefs struct {
	Currency          string `toml:"currency"`
	DuplicatePolicy   string `toml:"duplicate_policy"`
	DefaultCategories string `toml:"default_categories"`
}

// DefaultPrefs returns the preferences used when no file exists.
func DefaultPrefs() Prefs {
	return Prefs{
		Currency:          core.DefaultCurrency,
		DuplicatePolicy:   string(core.LastWriteWins),
		DefaultCategories: core.DefaultExpenseCategories,
	}
}

// PrefsDir returns the XDG-compliant config directory.
func PrefsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finboard")
}

// PrefsPath returns the default preferences file path.
func PrefsPath() string {
	return filepath.Join(PrefsDir(), "finctl.toml")
}

// LoadPrefs reads path over the defaults. A missing file is not an error.
// Keys left out of the file keep their default values.
func LoadPrefs(path string) (Prefs, error) {
	prefs := DefaultPrefs()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("reading preferences: %w", err)
	}

	md, err := toml.Decode(string(data), &prefs)
	if err != nil {
		return DefaultPrefs(), fmt.Errorf("parsing preferences %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return DefaultPrefs(), fmt.Errorf("unknown preference keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return prefs, prefs.Validate()
}

// Validate rejects unknown currencies and duplicate policies.
func (p Prefs) Validate() error {
	if !core.KnownCurrency(p.Currency) {
		return fmt.Errorf("unknown currency %q", p.Currency)
	}
	if _, err := core.ParseDuplicatePolicy(p.DuplicatePolicy); err != nil {
		return fmt.Errorf("duplicate_policy %q: %w", p.DuplicatePolicy, err)
	}
	return nil
}

// Policy returns the parsed duplicate policy, falling back to last-write-wins.
func (p Prefs) Policy() core.DuplicatePolicy {
	policy, err := core.ParseDuplicatePolicy(p.DuplicatePolicy)
	if err != nil {
		return core.LastWriteWins
	}
	return policy
}
