package http

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// barRow is one horizontal bar of a category chart.
type barRow struct {
	Name     string
	Amount   string
	Width    int // percent of the largest absolute amount
	Negative bool
	Share    string // percent of the sum of absolute amounts
}

// barRows scales rows against the largest absolute amount.
func barRows(rows []core.CategoryAmount, currency string) []barRow {
	maxAbs := decimal.Zero
	sumAbs := decimal.Zero
	for _, r := range rows {
		a := r.Amount.Abs()
		if a.GreaterThan(maxAbs) {
			maxAbs = a
		}
		sumAbs = sumAbs.Add(a)
	}

	out := make([]barRow, 0, len(rows))
	for _, r := range rows {
		a := r.Amount.Abs()
		width := 0
		share := decimal.Zero
		if maxAbs.IsPositive() && a.IsPositive() {
			width = int(a.Mul(decimal.NewFromInt(100)).Div(maxAbs).Round(0).IntPart())
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
			share = a.Mul(decimal.NewFromInt(100)).Div(sumAbs)
		}
		out = append(out, barRow{
			Name:     r.Name,
			Amount:   core.FormatMoney(r.Amount, currency),
			Width:    width,
			Negative: r.Amount.IsNegative(),
			Share:    core.FormatPercent(share),
		})
	}
	return out
}

// Line chart geometry in SVG user units.
const (
	chartWidth   = 600
	chartHeight  = 240
	chartPadding = 30
)

// lineChart is a server-rendered SVG polyline of the portfolio value.
type lineChart struct {
	Width, Height int
	Points        string
	Dots          []chartDot
	MinLabel      string
	MaxLabel      string
	FirstDate     string
	LastDate      string
	// Baseline is the y coordinate of the plot floor.
	Baseline int
}

type chartDot struct {
	X, Y  string
	Title string
}

func newLineChart(series core.PortfolioSeries, currency string) lineChart {
	c := lineChart{
		Width:    chartWidth,
		Height:   chartHeight,
		Baseline: chartHeight - chartPadding,
	}
	n := len(series.Points)
	if n == 0 {
		return c
	}

	lo, hi := series.Points[0].Value, series.Points[0].Value
	for _, p := range series.Points[1:] {
		if p.Value.LessThan(lo) {
			lo = p.Value
		}
		if p.Value.GreaterThan(hi) {
			hi = p.Value
		}
	}
	c.MinLabel = core.FormatMoney(lo, currency)
	c.MaxLabel = core.FormatMoney(hi, currency)
	c.FirstDate = series.Points[0].Date.String()
	c.LastDate = series.Points[n-1].Date.String()

	span := hi.Sub(lo).InexactFloat64()
	if span == 0 {
		span = 1
	}
	plotW := float64(chartWidth - 2*chartPadding)
	plotH := float64(chartHeight - 2*chartPadding)

	coords := make([]string, n)
	c.Dots = make([]chartDot, n)
	for i, p := range series.Points {
		x := float64(chartWidth) / 2
		if n > 1 {
			x = chartPadding + float64(i)*plotW/float64(n-1)
		}
		y := float64(chartHeight-chartPadding) - p.Value.Sub(lo).InexactFloat64()/span*plotH
		if hi.Equal(lo) {
			y = float64(chartHeight) / 2
		}
		xs, ys := fmt.Sprintf("%.1f", x), fmt.Sprintf("%.1f", y)
		coords[i] = xs + "," + ys
		c.Dots[i] = chartDot{
			X:     xs,
			Y:     ys,
			Title: p.Date.String() + ": " + core.FormatMoney(p.Value, currency),
		}
	}
	c.Points = strings.Join(coords, " ")
	return c
}

// netWorthView is the data behind the net worth result partial.
type netWorthView struct {
	Report        core.NetWorthReport
	Progress      string
	ProgressWidth int
	Overview      []barRow
	GoalGap       []barRow
	Form          netWorthForm
}

func newNetWorthView(r core.NetWorthReport, form netWorthForm, currency string) netWorthView {
	v := netWorthView{
		Report:   r,
		Overview: barRows(r.Overview, currency),
		GoalGap:  barRows(r.GoalGap, currency),
		Form:     form,
	}
	if r.HasProgress {
		v.Progress = core.FormatPercent(r.Progress)
		w := r.Progress.Round(0).IntPart()
		if w < 0 {
			w = 0
		}
		if w > 100 {
			w = 100
		}
		v.ProgressWidth = int(w)
	}
	return v
}

// portfolioView is the data behind the portfolio result partial. Exactly one
// of Series, Error or Notice is meaningful.
type portfolioView struct {
	Series *core.PortfolioSeries
	Chart  lineChart
	Error  string
	Notice string
	Form   portfolioForm
}

// budgetView is the data behind the budget panel partial.
type budgetView struct {
	Summary core.BudgetSummary
	Rows    []barRow
	Form    budgetForm
}
