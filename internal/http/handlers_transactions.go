package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := parseForm(w, r)
	if !ok {
		return
	}
	today := s.today()

	in := services.NewTransaction{Description: p.Get("description")}
	var err error
	if in.Date, err = p.Date("date", today); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Amount, err = p.Money("amount"); err != nil {
		writeError(w, r, err)
		return
	}
	if in.CardID, err = p.OptionalID("card_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if in.IsPaid, err = p.Bool("paid", false); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.svc.CreateTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionsCreated(r.Context(), t.Description, t.Amount.Cents, t.DueDate.String(), t.GroupID, 1)

	writeJSON(w, http.StatusCreated, toTransactionJSON(t, services.ClassifyDueStatus(t.DueDate, t.IsPaid, today)))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	params, err := ParseMonthParams(r.URL.Query(), today)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := s.svc.ListMonth(r.Context(), params.Year, params.Month, today)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var total int64
	for _, v := range views {
		total += v.Amount.Cents
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":          params.Year,
		"month":         params.Month,
		"today":         today,
		"total_cents":   total,
		"total_display": core.FormatBRL(total),
		"transactions":  toViewsJSON(views),
	})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ListGroup(r.Context(), r.PathValue("id"), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	g := groupJSON{GroupID: r.PathValue("id"), Transactions: toViewsJSON(views)}
	for _, v := range views {
		g.TotalCents += v.Amount.Cents
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleSetPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := parseForm(w, r)
	if !ok {
		return
	}
	paid, err := p.Bool("paid", true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.svc.SetPaid(r.Context(), id, paid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(t, services.ClassifyDueStatus(t.DueDate, t.IsPaid, s.today())))
}

func (s *Server) handleCreateInstallments(w http.ResponseWriter, r *http.Request) {
	p, ok := parseForm(w, r)
	if !ok {
		return
	}

	in := services.NewInstallmentPlan{Description: p.Get("description")}
	var err error
	if in.FirstDate, err = p.Date("first_date", s.today()); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Total, err = p.Money("total"); err != nil {
		writeError(w, r, err)
		return
	}
	if in.PerInstallment, err = p.Money("installment_amount"); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Count, err = p.Int("count", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if in.CardID, err = p.OptionalID("card_id"); err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.svc.CreateInstallmentPlan(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logGroupCreated(r, rows)
	writeJSON(w, http.StatusCreated, s.toGroupJSON(rows))
}

func (s *Server) handleCreateRecurrence(w http.ResponseWriter, r *http.Request) {
	p, ok := parseForm(w, r)
	if !ok {
		return
	}

	in := services.NewRecurring{Description: p.Get("description")}
	var err error
	if in.Start, err = p.Date("start_date", s.today()); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Rule, err = parseRule(p, in.Start); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Amount, err = p.Money("amount"); err != nil {
		writeError(w, r, err)
		return
	}
	if in.CardID, err = p.OptionalID("card_id"); err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.svc.CreateRecurring(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logGroupCreated(r, rows)
	writeJSON(w, http.StatusCreated, s.toGroupJSON(rows))
}

func (s *Server) logGroupCreated(r *http.Request, rows []core.Transaction) {
	if len(rows) == 0 {
		return
	}
	var total int64
	for _, t := range rows {
		total += t.Amount.Cents
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionsCreated(r.Context(), rows[0].Description, total, rows[0].DueDate.String(), rows[0].GroupID, len(rows))
}
