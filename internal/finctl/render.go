package finctl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// Palette
var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorMuted  = lipgloss.Color("#878580")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	amountStyle   = cellStyle.Align(lipgloss.Right)
	positiveStyle = lipgloss.NewStyle().Foreground(colorGreen)
	negativeStyle = lipgloss.NewStyle().Foreground(colorRed)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// barWidth is the width in cells of a full share bar.
const barWidth = 24

// renderTable draws a rounded table. Columns listed in numeric are right aligned.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return amountStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// signed colours an amount by its sign.
func signed(d decimal.Decimal, currency string) string {
	s := core.FormatMoney(d, currency)
	if d.IsNegative() {
		return negativeStyle.Render(s)
	}
	return positiveStyle.Render(s)
}

// bar renders share (0..1) as a block bar of barWidth cells.
func bar(share decimal.Decimal) string {
	n := int(share.Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	if n == 0 && share.IsPositive() {
		n = 1
	}
	return strings.Repeat("█", n) + mutedStyle.Render(strings.Repeat("░", barWidth-n))
}

// RenderNetWorth renders the net worth report.
func RenderNetWorth(r core.NetWorthReport, currency string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Net Worth Calculator"))
	b.WriteString("\n")

	rows := [][]string{
		{core.LabelAssets, core.FormatMoney(r.Input.Assets, currency)},
		{core.LabelLiabilities, core.FormatMoney(r.Input.Liabilities, currency)},
		{core.LabelNetWorth, signed(r.NetWorth, currency)},
		{core.LabelGoal, core.FormatMoney(r.Input.Goal, currency)},
		{core.LabelRemaining, core.FormatMoney(r.Remaining, currency)},
	}
	if r.HasProgress {
		rows = append(rows, []string{"Progress", core.FormatPercent(r.Progress)})
	}
	b.WriteString(renderTable([]string{"Item", "Amount"}, rows, 1))
	b.WriteString("\n")

	if r.HasProgress {
		share := r.Progress.Div(decimal.NewFromInt(100))
		fmt.Fprintf(&b, "%s %s\n", bar(share), core.FormatPercent(r.Progress))
	} else {
		b.WriteString(mutedStyle.Render("Set a goal above zero to track progress"))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderPortfolio renders one row per month end with the running value.
func RenderPortfolio(s core.PortfolioSeries, currency string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Portfolio Tracker"))
	b.WriteString("\n")

	rows := make([][]string, 0, s.Len())
	for _, p := range s.Points {
		rows = append(rows, []string{
			p.Date.String(),
			core.FormatMoney(p.Investment, currency),
			signed(p.Value, currency),
		})
	}
	b.WriteString(renderTable([]string{"Date", "Investment", "Portfolio Value"}, rows, 1, 2))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total invested: %s  Final value: %s  Periods: %d\n",
		core.FormatMoney(s.TotalInvested(), currency),
		core.FormatMoney(s.Final(), currency),
		s.Len())
	return b.String()
}

// RenderBudget renders the expense table, shares and the income/expense summary.
func RenderBudget(sum core.BudgetSummary, currency string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Budget Planner"))
	b.WriteString("\n")

	if len(sum.Rows) == 0 {
		b.WriteString(mutedStyle.Render("No expense categories entered"))
		b.WriteString("\n")
	} else {
		rows := make([][]string, 0, len(sum.Rows))
		for _, row := range sum.Rows {
			share := decimal.Zero
			if sum.TotalExpenses.IsPositive() {
				share = row.Amount.Div(sum.TotalExpenses)
			}
			rows = append(rows, []string{
				row.Name,
				core.FormatMoney(row.Amount, currency),
				bar(share),
				core.FormatPercent(share.Mul(decimal.NewFromInt(100))),
			})
		}
		b.WriteString(renderTable([]string{"Category", "Amount", "Share", "%"}, rows, 1, 3))
		b.WriteString("\n")
	}

	if len(sum.Duplicates) > 0 {
		how := "(last amount kept)"
		if sum.Policy == core.SumDuplicates {
			how = "(amounts added)"
		}
		b.WriteString(mutedStyle.Render("Repeated categories: " + strings.Join(sum.Duplicates, ", ") + " " + how))
		b.WriteString("\n")
	}

	summary := [][]string{
		{"Total Income", core.FormatMoney(sum.Income, currency)},
		{"Total Expenses", core.FormatMoney(sum.TotalExpenses, currency)},
		{"Net " + string(sum.NetKind), signed(sum.Net, currency)},
	}
	b.WriteString(renderTable([]string{"Summary", "Amount"}, summary, 1))
	b.WriteString("\n")
	return b.String()
}

// RenderError formats a command error for stderr.
func RenderError(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}
