package finctl

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"finboard/internal/core"
	"finboard/internal/log"
)

// noDataNotice is printed when there is nothing to compute.
const noDataNotice = "Please enter your investment data."

func newNetWorthCmd(a *app) *cobra.Command {
	var assets, liabilities, goal string

	cmd := &cobra.Command{
		Use:   "networth",
		Short: "Net worth and progress toward a goal",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			in := core.DefaultNetWorthInput()
			var err error
			if in.Assets, err = amountFlag("assets", assets); err != nil {
				return err
			}
			if in.Liabilities, err = amountFlag("liabilities", liabilities); err != nil {
				return err
			}
			if in.Goal, err = amountFlag("goal", goal); err != nil {
				return err
			}

			report := core.CalculateNetWorth(in)
			a.logger.Info("Calculation served",
				log.FieldPage, log.ComponentNetWorth,
				log.FieldNetWorth, report.NetWorth.String())
			a.print(RenderNetWorth(report, a.prefs.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&assets, "assets", "0", "Total assets")
	cmd.Flags().StringVar(&liabilities, "liabilities", "0", "Total liabilities")
	cmd.Flags().StringVar(&goal, "goal", "1", "Net worth goal")
	return cmd
}

func newPortfolioCmd(a *app) *cobra.Command {
	var initial, start, contributions string

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Cumulative portfolio value over monthly contributions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initialAmount, err := core.ParseNonNegative(initial, decimal.Zero)
			if err != nil {
				return fmt.Errorf("--initial %q: %w", initial, err)
			}
			startDate := core.DateOf(a.now())
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("--start %q: %w", start, core.ErrInvalidDate)
				}
				startDate = core.DateOf(t)
			}

			series, err := core.BuildPortfolio(core.PortfolioInput{
				InitialInvestment: initialAmount,
				StartDate:         startDate,
				Contributions:     contributions,
			})
			var perr *core.ParseError
			switch {
			case errors.Is(err, core.ErrNoContributions):
				a.print(mutedStyle.Render(noDataNotice) + "\n")
				return nil
			case errors.As(err, &perr):
				a.logger.Info("Contribution parse error",
					log.FieldParsePosition, perr.Position,
					"token", perr.Token,
					log.FieldOperation, log.OpParse)
				return fmt.Errorf("invalid input: %w", err)
			case err != nil:
				return err
			}

			a.logger.Info("Calculation served",
				log.FieldPage, log.ComponentPortfolio,
				log.FieldPeriods, series.Len())
			a.print(RenderPortfolio(series, a.prefs.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&initial, "initial", "0", "Initial investment")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&contributions, "contributions", "c", "", `Monthly contributions, e.g. "100, 200.5, -50"`)
	return cmd
}

func newBudgetCmd(a *app) *cobra.Command {
	var (
		income     string
		categories string
		amounts    []string
		policy     string
	)

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Monthly income, expenses and net",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := core.BudgetInput{Policy: a.prefs.Policy()}
			var err error
			if in.Income, err = core.ParseNonNegative(income, decimal.Zero); err != nil {
				return fmt.Errorf("--income %q: %w", income, err)
			}
			if policy != "" {
				if in.Policy, err = core.ParseDuplicatePolicy(policy); err != nil {
					return fmt.Errorf("--policy %q: %w", policy, err)
				}
			}

			raw := categories
			if !cmd.Flags().Changed("categories") {
				raw = a.prefs.DefaultCategories
			}
			in.Categories = core.ParseCategories(raw)

			in.Amounts = make([]decimal.Decimal, len(amounts))
			for i, s := range amounts {
				if in.Amounts[i], err = core.ParseNonNegative(s, decimal.Zero); err != nil {
					return fmt.Errorf("amount #%d %q: %w", i+1, s, err)
				}
			}

			summary := core.Aggregate(in)
			a.logger.Info("Calculation served",
				log.FieldPage, log.ComponentBudget,
				log.FieldCategories, len(summary.Rows),
				log.FieldDuplicates, len(summary.Duplicates))
			a.print(RenderBudget(summary, a.prefs.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&income, "income", "0", "Monthly income")
	cmd.Flags().StringVar(&categories, "categories", "", "Comma-separated expense categories (default from preferences)")
	cmd.Flags().StringSliceVarP(&amounts, "amounts", "a", nil, "Comma-separated amounts, one per category")
	cmd.Flags().StringVar(&policy, "policy", "", "Duplicate category policy: last-write-wins or sum")
	return cmd
}

// amountFlag parses a signed amount flag.
func amountFlag(name, raw string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s %q: %w", name, raw, err)
	}
	return d, nil
}
