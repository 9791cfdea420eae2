package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultExpenseCategories is the category list offered before the user edits it.
const DefaultExpenseCategories = "Rent,Utilities,Groceries,Entertainment"

const (
	// LastWriteWins keeps the amount of the last occurrence of a repeated name.
	LastWriteWins DuplicatePolicy = "last-write-wins"
	// SumDuplicates adds the amounts of every occurrence of a repeated name.
	SumDuplicates DuplicatePolicy = "sum"
)

// Labels produced by Classify.
const (
	KindIncome  EntryKind = "Income"
	KindExpense EntryKind = "Expense"
)

type (
	// DuplicatePolicy decides how repeated category names are aggregated.
	DuplicatePolicy string

	// EntryKind labels a signed amount as income or expense.
	EntryKind string

	// BudgetInput holds the budget page inputs. Amounts are positional: the
	// i-th amount belongs to the i-th category, missing amounts count as zero.
	BudgetInput struct {
		Income     decimal.Decimal
		Categories []string
		Amounts    []decimal.Decimal
		Policy     DuplicatePolicy
	}

	// BudgetSummary is the aggregated budget with its monthly net.
	BudgetSummary struct {
		Income        decimal.Decimal
		Rows          []CategoryAmount
		TotalExpenses decimal.Decimal
		Net           decimal.Decimal
		NetKind       EntryKind
		// Duplicates lists category names entered more than once.
		Duplicates []string
		Policy     DuplicatePolicy
	}

	// Ledger maps category names to amounts in first-insertion order.
	Ledger struct {
		policy  DuplicatePolicy
		order   []string
		amounts map[string]decimal.Decimal
		dups    []string
	}
)

// ParseDuplicatePolicy accepts "last-write-wins" or "sum"; empty means last-write-wins.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return LastWriteWins, nil
	case LastWriteWins, SumDuplicates:
		return p, nil
	default:
		return "", ErrInvalidPolicy
	}
}

// ParseCategories splits raw on commas and trims each name. Blank names are dropped;
// duplicates are kept so that the ledger policy can see them.
func ParseCategories(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(tok); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Classify labels a signed amount: positive is income, anything else an expense.
func Classify(amount decimal.Decimal) EntryKind {
	if amount.IsPositive() {
		return KindIncome
	}
	return KindExpense
}

// NewLedger returns an empty ledger; an empty policy means last-write-wins.
func NewLedger(policy DuplicatePolicy) *Ledger {
	if policy == "" {
		policy = LastWriteWins
	}
	return &Ledger{
		policy:  policy,
		amounts: make(map[string]decimal.Decimal),
	}
}

// Add records amount under name according to the ledger policy.
func (l *Ledger) Add(name string, amount decimal.Decimal) {
	prev, seen := l.amounts[name]
	if !seen {
		l.order = append(l.order, name)
		l.amounts[name] = amount
		return
	}
	if !containsString(l.dups, name) {
		l.dups = append(l.dups, name)
	}
	switch l.policy {
	case SumDuplicates:
		l.amounts[name] = prev.Add(amount)
	default:
		l.amounts[name] = amount
	}
}

// Rows returns the category/amount table.
func (l *Ledger) Rows() []CategoryAmount {
	rows := make([]CategoryAmount, 0, len(l.order))
	for _, name := range l.order {
		rows = append(rows, CategoryAmount{Name: name, Amount: l.amounts[name]})
	}
	return rows
}

// Total sums every amount in the ledger.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, name := range l.order {
		total = total.Add(l.amounts[name])
	}
	return total
}

// Duplicates returns the names that were added more than once.
func (l *Ledger) Duplicates() []string {
	return append([]string(nil), l.dups...)
}

func (in BudgetInput) Validate() error {
	if in.Income.IsNegative() {
		return ErrNegativeAmount
	}
	for _, a := range in.Amounts {
		if a.IsNegative() {
			return ErrNegativeAmount
		}
	}
	if _, err := ParseDuplicatePolicy(string(in.Policy)); err != nil {
		return err
	}
	return nil
}

// AmountAt returns the i-th amount or zero when it was not supplied.
func (in BudgetInput) AmountAt(i int) decimal.Decimal {
	if i < len(in.Amounts) {
		return in.Amounts[i]
	}
	return decimal.Zero
}

// Aggregate builds the ledger and derives the totals.
func Aggregate(in BudgetInput) BudgetSummary {
	ledger := NewLedger(in.Policy)
	for i, name := range in.Categories {
		ledger.Add(name, in.AmountAt(i))
	}
	total := ledger.Total()
	net := in.Income.Sub(total)

	return BudgetSummary{
		Income:        in.Income,
		Rows:          ledger.Rows(),
		TotalExpenses: total,
		Net:           net,
		NetKind:       Classify(net),
		Duplicates:    ledger.Duplicates(),
		Policy:        ledger.policy,
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
