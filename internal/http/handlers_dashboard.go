package http

import (
	"context"
	"errors"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/log"
)

// Page texts shown on every dashboard page.
const (
	tipText        = "Regularly update your assets, liabilities, and goals to track your financial progress."
	disclaimerText = "This calculator is a simple example for educational purposes. Consult with financial professionals for personalized advice."
	noDataNotice   = "Please enter your investment data."
)

// page carries the layout data shared by the full pages.
type page struct {
	Title      string
	Active     string
	Tip        string
	Disclaimer string
	// Error replaces the result area when the inputs cannot be used.
	Error string
}

func newPage(title, active string) page {
	return page{Title: title, Active: active, Tip: tipText, Disclaimer: disclaimerText}
}

type netWorthPage struct {
	page
	View netWorthView
}

type portfolioPage struct {
	page
	View portfolioView
}

type budgetPage struct {
	page
	View budgetView
}

func (s *Server) handleNetWorthPage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	data := netWorthPage{page: newPage("Net Worth Calculator", log.ComponentNetWorth)}
	status := http.StatusOK

	view, err := s.netWorthView(r.Context(), queryValues(r.URL.Query()))
	if err != nil {
		data.Error = userMessage(err)
		status = http.StatusUnprocessableEntity
	}
	data.View = view
	s.writeTemplate(w, r, status, "networth.html", data)
}

func (s *Server) handleNetWorthPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view, err := s.netWorthView(r.Context(), queryValues(r.URL.Query()))
	if err != nil {
		UnprocessableEntityError(userMessage(err)).Write(w)
		return
	}
	s.writeTemplate(w, r, http.StatusOK, "networth_result.html", view)
}

func (s *Server) netWorthView(ctx context.Context, src valueSource) (netWorthView, error) {
	in, form, err := parseNetWorthInput(src)
	if err != nil {
		return netWorthView{Form: form}, err
	}
	return newNetWorthView(s.netWorth(ctx, in), form, s.opts.Currency), nil
}

func (s *Server) handlePortfolioPage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	data := portfolioPage{page: newPage("Portfolio Tracker", log.ComponentPortfolio)}
	status := http.StatusOK

	view, err := s.portfolioView(r.Context(), queryValues(r.URL.Query()))
	if err != nil {
		data.Error = userMessage(err)
		status = http.StatusUnprocessableEntity
	}
	data.View = view
	s.writeTemplate(w, r, status, "portfolio.html", data)
}

func (s *Server) handlePortfolioPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view, err := s.portfolioView(r.Context(), queryValues(r.URL.Query()))
	if err != nil {
		UnprocessableEntityError(userMessage(err)).Write(w)
		return
	}
	s.writeTemplate(w, r, http.StatusOK, "portfolio_result.html", view)
}

// portfolioView folds contribution parse errors and missing data into the
// view. Only invalid initial investment or start date are returned as errors.
func (s *Server) portfolioView(ctx context.Context, src valueSource) (portfolioView, error) {
	in, form, err := parsePortfolioInput(src, s.today())
	view := portfolioView{Form: form}
	if err != nil {
		return view, err
	}

	series, err := s.portfolio(ctx, in)
	var perr *core.ParseError
	switch {
	case err == nil:
		view.Series = &series
		view.Chart = newLineChart(series, s.opts.Currency)
	case errors.Is(err, core.ErrNoContributions):
		view.Notice = noDataNotice
	case errors.As(err, &perr):
		s.logger.InfoContext(ctx, "Contribution parse error",
			log.FieldParsePosition, perr.Position,
			"token", perr.Token,
			log.FieldOperation, log.OpParse)
		view.Error = "Invalid input: " + perr.Error() + ". Please enter comma-separated numbers."
	default:
		return view, err
	}
	return view, nil
}

func (s *Server) handleBudgetPage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	data := budgetPage{page: newPage("Budget Planner", log.ComponentBudget)}
	status := http.StatusOK

	view, err := s.budgetView(r.Context(), queryValues(r.URL.Query()))
	if err != nil {
		data.Error = userMessage(err)
		status = http.StatusUnprocessableEntity
	}
	data.View = view
	s.writeTemplate(w, r, status, "budget.html", data)
}

func (s *Server) handleBudgetPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view, err := s.budgetView(r.Context(), queryValues(r.URL.Query()))
	if err != nil {
		UnprocessableEntityError(userMessage(err)).Write(w)
		return
	}
	s.writeTemplate(w, r, http.StatusOK, "budget_panel.html", view)
}

func (s *Server) budgetView(ctx context.Context, src valueSource) (budgetView, error) {
	in, form, err := parseBudgetInput(src, s.opts.DefaultCategories, s.opts.DuplicatePolicy)
	if err != nil {
		return budgetView{Form: form}, err
	}
	summary := s.budget(ctx, in)
	return budgetView{
		Summary: summary,
		Rows:    barRows(summary.Rows, s.opts.Currency),
		Form:    form,
	}, nil
}
