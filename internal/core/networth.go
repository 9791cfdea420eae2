package core

import "github.com/shopspring/decimal"

// Row labels of the net worth tables.
const (
	LabelNetWorth    = "Current Net Worth"
	LabelGoal        = "Net Worth Goal"
	LabelAssets      = "Assets"
	LabelLiabilities = "Liabilities"
	LabelRemaining   = "Remaining to Goal"
)

// NetWorthInput holds the three user-entered figures.
type NetWorthInput struct {
	Assets      decimal.Decimal
	Liabilities decimal.Decimal
	Goal        decimal.Decimal
}

// NetWorthReport is the result of CalculateNetWorth.
type NetWorthReport struct {
	Input    NetWorthInput
	NetWorth decimal.Decimal

	// Progress is only meaningful when HasProgress is set (Goal > 0).
	Progress    decimal.Decimal
	HasProgress bool

	// Remaining is Goal - NetWorth and may be negative.
	Remaining decimal.Decimal

	Overview []CategoryAmount
	GoalGap  []CategoryAmount
}

// DefaultNetWorthInput mirrors the initial widget values: 0 assets, 0 liabilities, goal 1.
func DefaultNetWorthInput() NetWorthInput {
	return NetWorthInput{
		Assets:      decimal.Zero,
		Liabilities: decimal.Zero,
		Goal:        decimal.NewFromInt(1),
	}
}

// NetWorth returns assets minus liabilities.
func NetWorth(assets, liabilities decimal.Decimal) decimal.Decimal {
	return assets.Sub(liabilities)
}

// ProgressPct returns netWorth / goal * 100. The second result is false when
// goal is zero or negative, in which case no progress is reported.
func ProgressPct(netWorth, goal decimal.Decimal) (decimal.Decimal, bool) {
	if !goal.IsPositive() {
		return decimal.Zero, false
	}
	return netWorth.Mul(hundred).Div(goal), true
}

// CalculateNetWorth derives every net worth output from the input.
func CalculateNetWorth(in NetWorthInput) NetWorthReport {
	nw := NetWorth(in.Assets, in.Liabilities)
	pct, ok := ProgressPct(nw, in.Goal)
	remaining := in.Goal.Sub(nw)

	return NetWorthReport{
		Input:       in,
		NetWorth:    nw,
		Progress:    pct,
		HasProgress: ok,
		Remaining:   remaining,
		Overview: []CategoryAmount{
			{Name: LabelNetWorth, Amount: nw},
			{Name: LabelGoal, Amount: in.Goal},
			{Name: LabelAssets, Amount: in.Assets},
			{Name: LabelLiabilities, Amount: in.Liabilities},
		},
		GoalGap: []CategoryAmount{
			{Name: LabelNetWorth, Amount: nw},
			{Name: LabelRemaining, Amount: remaining},
		},
	}
}
