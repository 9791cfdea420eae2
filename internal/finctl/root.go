// Package finctl implements the finctl terminal calculator: the net worth,
// portfolio and budget computations driven by flags instead of a browser.
package finctl

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/log"
)

// app carries the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	prefsPath string
	currency  string
	logLevel  string

	prefs  Prefs
	logger *log.Logger
}

// NewRootCmd builds the command tree writing results to out and logs to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, now: time.Now}

	root := &cobra.Command{
		Use:           "finctl",
		Short:         "Personal finance calculator",
		Long:          "Compute net worth, portfolio growth and monthly budgets from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.prefsPath, "config", PrefsPath(), "Preferences file (TOML)")
	root.PersistentFlags().StringVar(&a.currency, "currency", "", "ISO currency code (overrides preferences)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newNetWorthCmd(a),
		newPortfolioCmd(a),
		newBudgetCmd(a),
	)
	return root
}

// Execute runs finctl with os.Args and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, RenderError(err))
		return 1
	}
	return 0
}

func (a *app) setup() error {
	lvl, err := config.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = log.New(log.Config{Level: lvl, Component: log.ComponentCLI, Output: a.errOut})

	prefs, err := LoadPrefs(a.prefsPath)
	if err != nil {
		return err
	}
	if a.currency != "" {
		if !core.KnownCurrency(a.currency) {
			return fmt.Errorf("unknown currency %q", a.currency)
		}
		prefs.Currency = a.currency
	}
	a.prefs = prefs
	a.logger.Debug("Preferences loaded",
		"path", a.prefsPath,
		"currency", prefs.Currency,
		"duplicate_policy", prefs.DuplicatePolicy)
	return nil
}

func (a *app) print(s string) {
	fmt.Fprint(a.out, s)
}
