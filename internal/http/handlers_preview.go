package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// Preview handlers run the engine without persisting anything, so clients can
// show the schedule before the user confirms.

func (s *Server) handlePreviewRecurrence(w http.ResponseWriter, r *http.Request) {
	p, ok := parseForm(w, r)
	if !ok {
		return
	}

	start, err := p.Date("start_date", s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := parseRule(p, start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := p.Money("amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := amount.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	desc := core.NormalizeDescription(p.Get("description"))
	if err := core.ValidateDescription(desc); err != nil {
		writeError(w, r, err)
		return
	}

	occ, err := services.Expand(start, rule, amount, desc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"occurrences": toOccurrencesJSON(occ)})
}

func (s *Server) handlePreviewInstallments(w http.ResponseWriter, r *http.Request) {
	p, ok := parseForm(w, r)
	if !ok {
		return
	}

	first, err := p.Date("first_date", s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := p.Money("total")
	if err != nil {
		writeError(w, r, err)
		return
	}
	per, err := p.Money("installment_amount")
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := p.Int("count", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	desc := core.NormalizeDescription(p.Get("description"))
	if err := core.ValidateDescription(desc); err != nil {
		writeError(w, r, err)
		return
	}

	total, err = services.ResolvePlanTotal(total, per, count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	occ, err := services.PlanInstallments(first, total, count, desc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_cents": total.Cents,
		"occurrences": toOccurrencesJSON(occ),
	})
}

func (s *Server) handlePreviewBillingCycle(w http.ResponseWriter, r *http.Request) {
	p, ok := parseForm(w, r)
	if !ok {
		return
	}

	date, err := p.Date("date", s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	closingDay, err := p.Int("closing_day", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dueDay, err := p.Int("due_day", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cycle, err := services.ResolveBillingCycle(date, closingDay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := map[string]any{
		"date":  date,
		"cycle": cycle,
		"moved": cycle != date,
	}
	if dueDay != 0 {
		due, err := services.StatementDueDate(cycle, core.Card{ClosingDay: closingDay, DueDay: dueDay})
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp["statement_due_date"] = due
	}
	writeJSON(w, http.StatusOK, resp)
}
