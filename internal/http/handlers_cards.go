package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	p, ok := parseForm(w, r)
	if !ok {
		return
	}

	card := core.Card{Name: p.Get("name")}
	var err error
	if card.ClosingDay, err = p.Int("closing_day", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if card.DueDay, err = p.Int("due_day", 0); err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.svc.CreateCard(r.Context(), card)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardJSON(saved))
}

// handleUpdateCard replaces a card's name and days; every field is required.
func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := parseForm(w, r)
	if !ok {
		return
	}

	card := core.Card{ID: id, Name: p.Get("name")}
	if card.ClosingDay, err = p.Int("closing_day", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if card.DueDay, err = p.Int("due_day", 0); err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.svc.UpdateCard(r.Context(), card)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardJSON(saved))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.ListCards(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]cardJSON, len(cards))
	for i, c := range cards {
		out[i] = toCardJSON(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": out})
}

func (s *Server) handleCardStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	today := s.today()
	params, err := ParseMonthParams(r.URL.Query(), today)
	if err != nil {
		writeError(w, r, err)
		return
	}

	st, err := s.svc.CardStatement(r.Context(), id, params.Year, params.Month, today)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"card":          toCardJSON(st.Card),
		"year":          st.Year,
		"month":         st.Month,
		"due_date":      st.DueDate,
		"total_cents":   st.Total.Cents,
		"total_display": core.FormatBRL(st.Total.Cents),
		"transactions":  toViewsJSON(st.Transactions),
	})
}
