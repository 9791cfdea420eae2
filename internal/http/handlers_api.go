package http

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

type netWorthResponse struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Goal        decimal.Decimal `json:"goal"`
	NetWorth    decimal.Decimal `json:"net_worth"`
	// ProgressPct is omitted when the goal is not positive.
	ProgressPct *string         `json:"progress_pct,omitempty"`
	Remaining   decimal.Decimal `json:"remaining"`
}

type portfolioPointResponse struct {
	Date       string          `json:"date"`
	Investment decimal.Decimal `json:"investment"`
	Value      decimal.Decimal `json:"value"`
}

type portfolioResponse struct {
	Initial       decimal.Decimal          `json:"initial"`
	StartDate     string                   `json:"start_date"`
	Periods       int                      `json:"periods"`
	FinalValue    decimal.Decimal          `json:"final_value"`
	TotalInvested decimal.Decimal          `json:"total_invested"`
	Points        []portfolioPointResponse `json:"points"`
	Notice        string                   `json:"notice,omitempty"`
}

type parseErrorResponse struct {
	Error    string `json:"error"`
	Position int    `json:"position"`
	Token    string `json:"token"`
}

type budgetRowResponse struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type budgetResponse struct {
	Income        decimal.Decimal      `json:"income"`
	Rows          []budgetRowResponse  `json:"rows"`
	TotalExpenses decimal.Decimal      `json:"total_expenses"`
	Net           decimal.Decimal      `json:"net"`
	NetKind       core.EntryKind       `json:"net_kind"`
	Duplicates    []string             `json:"duplicates"`
	Policy        core.DuplicatePolicy `json:"policy"`
}

func (s *Server) handleNetWorthAPI(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		JSONError(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	in, _, err := parseNetWorthInput(p)
	if err != nil {
		JSONError(http.StatusUnprocessableEntity, userMessage(err)).Write(w)
		return
	}

	report := s.netWorth(r.Context(), in)
	out := netWorthResponse{
		Assets:      report.Input.Assets,
		Liabilities: report.Input.Liabilities,
		Goal:        report.Input.Goal,
		NetWorth:    report.NetWorth,
		Remaining:   report.Remaining,
	}
	if report.HasProgress {
		pct := report.Progress.StringFixed(2)
		out.ProgressPct = &pct
	}
	NewHTMXResponse().BodyJSON(out).Write(w)
}

func (s *Server) handlePortfolioAPI(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		JSONError(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	in, _, err := parsePortfolioInput(p, s.today())
	if err != nil {
		JSONError(http.StatusUnprocessableEntity, userMessage(err)).Write(w)
		return
	}

	series, err := s.portfolio(r.Context(), in)
	var perr *core.ParseError
	switch {
	case errors.As(err, &perr):
		NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			BodyJSON(parseErrorResponse{Error: perr.Error(), Position: perr.Position, Token: perr.Token}).
			Write(w)
		return
	case errors.Is(err, core.ErrNoContributions):
		NewHTMXResponse().BodyJSON(portfolioResponse{
			Initial:   in.InitialInvestment,
			StartDate: in.StartDate.String(),
			Points:    []portfolioPointResponse{},
			Notice:    noDataNotice,
		}).Write(w)
		return
	case err != nil:
		JSONError(http.StatusUnprocessableEntity, userMessage(err)).Write(w)
		return
	}

	out := portfolioResponse{
		Initial:       series.Initial,
		StartDate:     series.StartDate.String(),
		Periods:       series.Len(),
		FinalValue:    series.Final(),
		TotalInvested: series.TotalInvested(),
		Points:        make([]portfolioPointResponse, 0, series.Len()),
	}
	for _, pt := range series.Points {
		out.Points = append(out.Points, portfolioPointResponse{
			Date:       pt.Date.String(),
			Investment: pt.Investment,
			Value:      pt.Value,
		})
	}
	NewHTMXResponse().BodyJSON(out).Write(w)
}

func (s *Server) handleBudgetAPI(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		JSONError(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	in, _, err := parseBudgetInput(apiBudgetSource{p}, s.opts.DefaultCategories, s.opts.DuplicatePolicy)
	if err != nil {
		JSONError(http.StatusUnprocessableEntity, userMessage(err)).Write(w)
		return
	}

	summary := s.budget(r.Context(), in)
	out := budgetResponse{
		Income:        summary.Income,
		Rows:          make([]budgetRowResponse, 0, len(summary.Rows)),
		TotalExpenses: summary.TotalExpenses,
		Net:           summary.Net,
		NetKind:       summary.NetKind,
		Duplicates:    summary.Duplicates,
		Policy:        summary.Policy,
	}
	if out.Duplicates == nil {
		out.Duplicates = []string{}
	}
	for _, row := range summary.Rows {
		out.Rows = append(out.Rows, budgetRowResponse{Category: row.Name, Amount: row.Amount})
	}
	NewHTMXResponse().BodyJSON(out).Write(w)
}

// apiBudgetSource lets API clients send "amounts" as a list alongside the
// form field name "amount".
type apiBudgetSource struct {
	*RequestBodyParser
}

func (a apiBudgetSource) GetList(key string) []string {
	if key == fieldAmount && !a.RequestBodyParser.Has(fieldAmount) {
		return a.RequestBodyParser.GetList("amounts")
	}
	return a.RequestBodyParser.GetList(key)
}
