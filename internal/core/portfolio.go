package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseError reports a contribution token that is not a number.
type ParseError struct {
	Position int // zero-based index of the token
	Token    string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("contribution #%d %q is not a number", e.Position+1, e.Token)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PortfolioInput holds the portfolio page inputs.
type PortfolioInput struct {
	InitialInvestment decimal.Decimal
	StartDate         Date
	// Contributions is the raw comma-separated text, e.g. "100, 200.5, -50".
	Contributions string
}

// PortfolioPoint is one period of the series.
type PortfolioPoint struct {
	Date       Date
	Investment decimal.Decimal // amount put in this period
	Value      decimal.Decimal // cumulative value at Date
}

// PortfolioSeries is the cumulative portfolio value over consecutive month ends.
type PortfolioSeries struct {
	Initial   decimal.Decimal
	StartDate Date
	Points    []PortfolioPoint
}

func (in PortfolioInput) Validate() error {
	if in.InitialInvestment.IsNegative() {
		return ErrNegativeAmount
	}
	if err := in.StartDate.Validate(); err != nil {
		return err
	}
	return nil
}

// HasContributions reports whether any contribution text was supplied.
func (in PortfolioInput) HasContributions() bool {
	return strings.TrimSpace(in.Contributions) != ""
}

// ParseContributions splits raw on commas and parses every trimmed token.
// Empty input returns ErrNoContributions; the first bad token returns a
// *ParseError wrapping ErrInvalidNumber.
func ParseContributions(raw string) ([]decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoContributions
	}
	tokens := strings.Split(raw, ",")
	out := make([]decimal.Decimal, 0, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, err := ParseAmount(tok)
		if err != nil {
			return nil, &ParseError{Position: i, Token: tok, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// CumulativeSum returns the prefix sums of values: out[i] = values[0] + ... + values[i].
func CumulativeSum(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	acc := decimal.Zero
	for i, v := range values {
		acc = acc.Add(v)
		out[i] = acc
	}
	return out
}

// EndOfMonth returns the last calendar day of d's month.
func EndOfMonth(d Date) Date {
	return Date{Time: time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)}
}

// MonthEnds returns n consecutive month-end dates. The first is the end of
// start's month, so a start on the 31st of January yields January 31.
func MonthEnds(start Date, n int) []Date {
	out := make([]Date, n)
	for i := range out {
		out[i] = Date{Time: time.Date(start.Year(), start.Month()+time.Month(i)+1, 0, 0, 0, 0, 0, time.UTC)}
	}
	return out
}

// BuildPortfolio parses the contributions, prepends the initial investment and
// accumulates the series over month ends starting at the start date.
func BuildPortfolio(in PortfolioInput) (PortfolioSeries, error) {
	if err := in.Validate(); err != nil {
		return PortfolioSeries{}, err
	}
	contribs, err := ParseContributions(in.Contributions)
	if err != nil {
		return PortfolioSeries{}, err
	}

	investments := make([]decimal.Decimal, 0, len(contribs)+1)
	investments = append(investments, in.InitialInvestment)
	investments = append(investments, contribs...)

	values := CumulativeSum(investments)
	dates := MonthEnds(in.StartDate, len(investments))

	series := PortfolioSeries{
		Initial:   in.InitialInvestment,
		StartDate: in.StartDate,
		Points:    make([]PortfolioPoint, len(investments)),
	}
	for i := range investments {
		series.Points[i] = PortfolioPoint{Date: dates[i], Investment: investments[i], Value: values[i]}
	}
	return series, nil
}

// Final returns the last cumulative value, zero for an empty series.
func (s PortfolioSeries) Final() decimal.Decimal {
	if len(s.Points) == 0 {
		return decimal.Zero
	}
	return s.Points[len(s.Points)-1].Value
}

// Len returns the number of periods.
func (s PortfolioSeries) Len() int {
	return len(s.Points)
}

// TotalInvested sums the per-period amounts, initial investment included.
func (s PortfolioSeries) TotalInvested() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Points {
		total = total.Add(p.Investment)
	}
	return total
}

// Investments returns the raw per-period amounts in order.
func (s PortfolioSeries) Investments() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Investment
	}
	return out
}
