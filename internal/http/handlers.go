package http

import (
	"fintrack/internal/core"
	"fintrack/internal/services"
)

type cardJSON struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
}

type transactionJSON struct {
	ID                int64       `json:"id"`
	DueDate           core.Date   `json:"due_date"`
	AmountCents       int64       `json:"amount_cents"`
	Amount            string      `json:"amount"`
	AmountDisplay     string      `json:"amount_display"`
	Description       string      `json:"description"`
	IsPaid            bool        `json:"is_paid"`
	Status            core.Status `json:"status"`
	CardID            *int64      `json:"card_id,omitempty"`
	GroupID           string      `json:"group_id,omitempty"`
	InstallmentNumber int         `json:"installment_number,omitempty"`
	InstallmentCount  int         `json:"installment_count,omitempty"`
}

type occurrenceJSON struct {
	DueDate       core.Date `json:"due_date"`
	AmountCents   int64     `json:"amount_cents"`
	Amount        string    `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	Description   string    `json:"description"`
}

// groupJSON is the response for installment plans and recurrence series.
type groupJSON struct {
	GroupID      string            `json:"group_id"`
	TotalCents   int64             `json:"total_cents"`
	Transactions []transactionJSON `json:"transactions"`
}

func toCardJSON(c core.Card) cardJSON {
	return cardJSON{ID: c.ID, Name: c.Name, ClosingDay: c.ClosingDay, DueDay: c.DueDay}
}

func toTransactionJSON(t core.Transaction, status core.Status) transactionJSON {
	return transactionJSON{
		ID:                t.ID,
		DueDate:           t.DueDate,
		AmountCents:       t.Amount.Cents,
		Amount:            t.Amount.String(),
		AmountDisplay:     core.FormatBRL(t.Amount.Cents),
		Description:       t.Description,
		IsPaid:            t.IsPaid,
		Status:            status,
		CardID:            t.CardID,
		GroupID:           t.GroupID,
		InstallmentNumber: t.InstallmentNumber,
		InstallmentCount:  t.InstallmentCount,
	}
}

func toViewsJSON(views []services.TransactionView) []transactionJSON {
	out := make([]transactionJSON, len(views))
	for i, v := range views {
		out[i] = toTransactionJSON(v.Transaction, v.Status)
	}
	return out
}

func (s *Server) toGroupJSON(rows []core.Transaction) groupJSON {
	today := s.today()
	g := groupJSON{Transactions: make([]transactionJSON, len(rows))}
	for i, t := range rows {
		g.TotalCents += t.Amount.Cents
		g.Transactions[i] = toTransactionJSON(t, services.ClassifyDueStatus(t.DueDate, t.IsPaid, today))
	}
	if len(rows) > 0 {
		g.GroupID = rows[0].GroupID
	}
	return g
}

func toOccurrencesJSON(occ []core.Occurrence) []occurrenceJSON {
	out := make([]occurrenceJSON, len(occ))
	for i, o := range occ {
		out[i] = occurrenceJSON{
			DueDate:       o.DueDate,
			AmountCents:   o.Amount.Cents,
			Amount:        o.Amount.String(),
			AmountDisplay: core.FormatBRL(o.Amount.Cents),
			Description:   o.Description,
		}
	}
	return out
}

// parseRule reads a recurrence rule. A weekly rule without weekday repeats on
// the weekday of start.
func parseRule(p *RequestBodyParser, start core.Date) (core.RecurrenceRule, error) {
	rule := core.RecurrenceRule{Kind: core.RecurrenceKind(p.Get("kind"))}
	if rule.Kind == "" {
		rule.Kind = core.Single
	}

	var err error
	if rule.OccurrenceCount, err = p.Int("count", 1); err != nil {
		return core.RecurrenceRule{}, err
	}
	if rule.IntervalDays, err = p.Int("interval_days", 0); err != nil {
		return core.RecurrenceRule{}, err
	}
	// An explicit weekday is kept as sent, even out of range.
	if rule.Weekday, err = p.Int("weekday", start.Weekday()); err != nil {
		return core.RecurrenceRule{}, err
	}
	return rule, nil
}
