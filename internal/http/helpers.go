package http

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// Input field names shared by the sidebar forms, the partials and the API.
const (
	fieldAssets        = "assets"
	fieldLiabilities   = "liabilities"
	fieldGoal          = "goal"
	fieldInitial       = "initial"
	fieldStart         = "start"
	fieldContributions = "contributions"
	fieldIncome        = "income"
	fieldCategories    = "categories"
	fieldAmount        = "amount"
	fieldPolicy        = "policy"
)

// fieldError reports which input could not be used.
type fieldError struct {
	Field string
	Err   error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *fieldError) Unwrap() error {
	return e.Err
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(parsedTime), nil
}

// signedField parses an optional amount that may be negative.
func signedField(src valueSource, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := src.Get(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := core.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, &fieldError{Field: name, Err: err}
	}
	return d, nil
}

// nonNegativeField parses an optional amount with a minimum of zero.
func nonNegativeField(src valueSource, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	d, err := core.ParseNonNegative(src.Get(name), fallback)
	if err != nil {
		return decimal.Zero, &fieldError{Field: name, Err: err}
	}
	return d, nil
}

// netWorthForm echoes the entered net worth values back into the form.
type netWorthForm struct {
	Assets      string
	Liabilities string
	Goal        string
}

func parseNetWorthInput(src valueSource) (core.NetWorthInput, netWorthForm, error) {
	in := core.DefaultNetWorthInput()
	var err error
	if in.Assets, err = signedField(src, fieldAssets, in.Assets); err != nil {
		return in, netWorthFormOf(src, in), err
	}
	if in.Liabilities, err = signedField(src, fieldLiabilities, in.Liabilities); err != nil {
		return in, netWorthFormOf(src, in), err
	}
	if in.Goal, err = signedField(src, fieldGoal, in.Goal); err != nil {
		return in, netWorthFormOf(src, in), err
	}
	return in, netWorthFormOf(src, in), nil
}

func netWorthFormOf(src valueSource, in core.NetWorthInput) netWorthForm {
	return netWorthForm{
		Assets:      echo(src, fieldAssets, in.Assets),
		Liabilities: echo(src, fieldLiabilities, in.Liabilities),
		Goal:        echo(src, fieldGoal, in.Goal),
	}
}

type portfolioForm struct {
	Initial       string
	Start         string
	Contributions string
}

func parsePortfolioInput(src valueSource, today core.Date) (core.PortfolioInput, portfolioForm, error) {
	in := core.PortfolioInput{
		InitialInvestment: decimal.Zero,
		StartDate:         today,
		Contributions:     src.Get(fieldContributions),
	}
	form := portfolioForm{
		Initial:       echo(src, fieldInitial, in.InitialInvestment),
		Start:         src.Get(fieldStart),
		Contributions: in.Contributions,
	}
	if form.Start == "" {
		form.Start = today.String()
	}

	var err error
	if in.InitialInvestment, err = nonNegativeField(src, fieldInitial, decimal.Zero); err != nil {
		return in, form, err
	}
	if raw := src.Get(fieldStart); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return in, form, &fieldError{Field: fieldStart, Err: err}
		}
		in.StartDate = d
	}
	return in, form, nil
}

type budgetForm struct {
	Income     string
	Categories string
	Policy     string
	// Amounts is aligned with the parsed category list.
	Amounts []budgetAmountField
}

type budgetAmountField struct {
	Category string
	Value    string
}

func parseBudgetInput(src valueSource, defaultCategories string, policy core.DuplicatePolicy) (core.BudgetInput, budgetForm, error) {
	rawCategories := defaultCategories
	if src.Has(fieldCategories) {
		rawCategories = src.Get(fieldCategories)
	}
	in := core.BudgetInput{
		Income:     decimal.Zero,
		Categories: core.ParseCategories(rawCategories),
		Policy:     policy,
	}
	form := budgetForm{
		Income:     echo(src, fieldIncome, decimal.Zero),
		Categories: rawCategories,
		Policy:     string(policy),
	}
	rawAmounts := categoryAmounts(src, in.Categories)
	for i, name := range in.Categories {
		v := "0"
		if rawAmounts[i] != "" {
			v = rawAmounts[i]
		}
		form.Amounts = append(form.Amounts, budgetAmountField{Category: name, Value: v})
	}

	if raw := src.Get(fieldPolicy); raw != "" {
		p, err := core.ParseDuplicatePolicy(raw)
		if err != nil {
			return in, form, &fieldError{Field: fieldPolicy, Err: err}
		}
		in.Policy = p
		form.Policy = string(p)
	}

	var err error
	if in.Income, err = nonNegativeField(src, fieldIncome, decimal.Zero); err != nil {
		return in, form, err
	}
	in.Amounts = make([]decimal.Decimal, 0, len(rawAmounts))
	for i, raw := range rawAmounts {
		d, err := core.ParseNonNegative(raw, decimal.Zero)
		if err != nil {
			return in, form, &fieldError{Field: fmt.Sprintf("%s for %s", fieldAmount, in.Categories[i]), Err: err}
		}
		in.Amounts = append(in.Amounts, d)
	}
	return in, form, nil
}

// amountKey names the form field holding the amount for a category.
func amountKey(category string) string {
	return fieldAmount + "[" + category + "]"
}

// categoryAmounts returns one raw amount per category. Fields keyed by
// category name win; a repeated name takes its keyed values in order. Without
// keyed fields the plain "amount" list is matched by position.
func categoryAmounts(src valueSource, categories []string) []string {
	out := make([]string, len(categories))
	keyed := false
	for _, name := range categories {
		if src.Has(amountKey(name)) {
			keyed = true
			break
		}
	}
	if !keyed {
		positional := src.GetList(fieldAmount)
		for i := range out {
			if i < len(positional) {
				out[i] = positional[i]
			}
		}
		return out
	}

	seen := make(map[string]int, len(categories))
	for i, name := range categories {
		values := src.GetList(amountKey(name))
		if k := seen[name]; k < len(values) {
			out[i] = values[k]
		}
		seen[name]++
	}
	return out
}

// echo returns what the user typed, or the fallback for an empty field.
func echo(src valueSource, name string, fallback decimal.Decimal) string {
	if v := src.Get(name); v != "" {
		return v
	}
	return fallback.String()
}

// userMessage turns an input error into a sentence for the page.
func userMessage(err error) string {
	var fe *fieldError
	switch {
	case errors.As(err, &fe) && errors.Is(err, core.ErrNegativeAmount):
		return fmt.Sprintf("%s must not be negative", capitalize(fe.Field))
	case errors.As(err, &fe) && errors.Is(err, core.ErrInvalidDate):
		return fmt.Sprintf("%s is not a valid date (YYYY-MM-DD)", capitalize(fe.Field))
	case errors.As(err, &fe) && errors.Is(err, core.ErrInvalidPolicy):
		return "Duplicate policy must be last-write-wins or sum"
	case errors.As(err, &fe):
		return fmt.Sprintf("%s is not a valid number", capitalize(fe.Field))
	default:
		return err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// templateFuncs returns the helpers available to every template.
func templateFuncs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return core.FormatMoney(d, currency)
		},
		"pct": core.FormatPercent,
		"date": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04")
		},
		"shortref": func(ref string) string {
			if len(ref) > 8 {
				return ref[:8]
			}
			return ref
		},
	}
}
