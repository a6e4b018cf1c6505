package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// TransactionStore is the persistence the service needs.
type TransactionStore interface {
	CreateCard(ctx context.Context, c core.Card) (core.Card, error)
	GetCard(ctx context.Context, id int64) (core.Card, error)
	ListCards(ctx context.Context) ([]core.Card, error)
	InsertTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
	ListCardTransactionsBetween(ctx context.Context, cardID int64, from, to core.Date) ([]core.Transaction, error)
	ListUnpaid(ctx context.Context, through core.Date) ([]core.Transaction, error)
	SetPaid(ctx context.Context, id int64, paid bool) error
	UpdateCard(ctx context.Context, c core.Card) (core.Card, error)
	ListGroup(ctx context.Context, groupID string) ([]core.Transaction, error)
}

// EventPublisher publishes transaction events; *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// ErrAmbiguousAmount is returned when an installment request names both or
// neither of total and per-installment amount.
var ErrAmbiguousAmount = errors.New("exactly one of total or per-installment amount is required")

type (
	// NewTransaction is a single purchase or bill as entered by the user.
	NewTransaction struct {
		Date        core.Date
		Amount      core.Money
		Description string
		CardID      *int64
		IsPaid      bool
	}

	// NewInstallmentPlan carries either Total or PerInstallment (the other zero).
	NewInstallmentPlan struct {
		FirstDate      core.Date
		Total          core.Money
		PerInstallment core.Money
		Count          int
		Description    string
		CardID         *int64
	}

	NewRecurring struct {
		Start       core.Date
		Rule        core.RecurrenceRule
		Amount      core.Money
		Description string
		CardID      *int64
	}

	// TransactionView is a transaction with its status on a given day.
	TransactionView struct {
		core.Transaction
		Status core.Status
	}

	// CardStatement groups a card's transactions for one billing month.
	CardStatement struct {
		Card         core.Card
		Year         int
		Month        int
		DueDate      core.Date
		Total        core.Money
		Transactions []TransactionView
	}
)

// TransactionService orchestrates the engine, storage and event publishing.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	cards     cache.Cache[core.Card]
}

// NewTransactionService wires the service. publisher and cards may be nil.
func NewTransactionService(store TransactionStore, publisher EventPublisher, cards cache.Cache[core.Card]) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		cards:     cards,
	}
}

// CreateCard validates and stores a card.
func (s *TransactionService) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	c.Name = core.NormalizeDescription(c.Name)
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	saved, err := s.store.CreateCard(ctx, c)
	if err != nil {
		return core.Card{}, fmt.Errorf("save card: %w", err)
	}
	return saved, nil
}

// UpdateCard changes a card's name or days. Later card purchases use the new
// closing day; stored rows keep their dates.
func (s *TransactionService) UpdateCard(ctx context.Context, c core.Card) (core.Card, error) {
	c.Name = core.NormalizeDescription(c.Name)
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	saved, err := s.store.UpdateCard(ctx, c)
	if err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	if s.cards != nil {
		s.cards.Delete(cardKey(c.ID))
	}
	return saved, nil
}

func (s *TransactionService) ListCards(ctx context.Context) ([]core.Card, error) {
	return s.store.ListCards(ctx)
}

// CreateTransaction stores a single transaction. When it is charged to a card
// the date is moved to its billing cycle once, here, at creation time.
func (s *TransactionService) CreateTransaction(ctx context.Context, in NewTransaction) (core.Transaction, error) {
	t := core.Transaction{
		DueDate:     in.Date,
		Amount:      in.Amount,
		Description: core.NormalizeDescription(in.Description),
		IsPaid:      in.IsPaid,
		CardID:      in.CardID,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if in.CardID != nil {
		card, err := s.card(ctx, *in.CardID)
		if err != nil {
			return core.Transaction{}, err
		}
		cycle, err := ResolveBillingCycle(in.Date, card.ClosingDay)
		if err != nil {
			return core.Transaction{}, err
		}
		if cycle != in.Date {
			slog.DebugContext(ctx, "Charge moved to next statement",
				"card_id", card.ID,
				"closing_day", card.ClosingDay,
				"date", in.Date.String(),
				"cycle", cycle.String())
		}
		t.DueDate = cycle
	}

	saved, err := s.save(ctx, []core.Transaction{t})
	if err != nil {
		return core.Transaction{}, err
	}
	return saved[0], nil
}

// CreateInstallmentPlan stores every installment of a purchase under one
// group id. Installment dates step monthly from FirstDate; the card closing
// day is not applied to them.
func (s *TransactionService) CreateInstallmentPlan(ctx context.Context, in NewInstallmentPlan) ([]core.Transaction, error) {
	total, err := ResolvePlanTotal(in.Total, in.PerInstallment, in.Count)
	if err != nil {
		return nil, err
	}
	desc := core.NormalizeDescription(in.Description)
	if err := core.ValidateDescription(desc); err != nil {
		return nil, err
	}
	if in.CardID != nil {
		if _, err := s.card(ctx, *in.CardID); err != nil {
			return nil, err
		}
	}

	occurrences, err := PlanInstallments(in.FirstDate, total, in.Count, desc)
	if err != nil {
		return nil, err
	}

	groupID := uuid.NewString()
	rows := make([]core.Transaction, len(occurrences))
	for i, o := range occurrences {
		rows[i] = core.Transaction{
			DueDate:           o.DueDate,
			Amount:            o.Amount,
			Description:       o.Description,
			CardID:            in.CardID,
			GroupID:           groupID,
			InstallmentNumber: i + 1,
			InstallmentCount:  in.Count,
		}
	}
	return s.save(ctx, rows)
}

// ResolvePlanTotal returns the plan total from exactly one of total and
// perInstallment; the other must be zero.
func ResolvePlanTotal(total, perInstallment core.Money, count int) (core.Money, error) {
	hasTotal, hasPer := total.Cents != 0, perInstallment.Cents != 0
	switch {
	case hasTotal && hasPer, !hasTotal && !hasPer:
		return core.Money{}, fmt.Errorf("%w: %w", core.ErrInvalidAmount, ErrAmbiguousAmount)
	case hasPer:
		return InstallmentTotal(perInstallment, count)
	default:
		return total, nil
	}
}

// CreateRecurring expands the rule and stores every occurrence under one group id.
func (s *TransactionService) CreateRecurring(ctx context.Context, in NewRecurring) ([]core.Transaction, error) {
	desc := core.NormalizeDescription(in.Description)
	if err := core.ValidateDescription(desc); err != nil {
		return nil, err
	}
	if err := in.Amount.Validate(); err != nil {
		return nil, err
	}
	if in.CardID != nil {
		if _, err := s.card(ctx, *in.CardID); err != nil {
			return nil, err
		}
	}

	occurrences, err := Expand(in.Start, in.Rule, in.Amount, desc)
	if err != nil {
		return nil, err
	}

	groupID := uuid.NewString()
	rows := make([]core.Transaction, len(occurrences))
	for i, o := range occurrences {
		rows[i] = core.Transaction{
			DueDate:     o.DueDate,
			Amount:      o.Amount,
			Description: o.Description,
			CardID:      in.CardID,
			GroupID:     groupID,
		}
	}
	return s.save(ctx, rows)
}

// SetPaid updates the paid flag and publishes a paid event when set.
func (s *TransactionService) SetPaid(ctx context.Context, id int64, paid bool) (core.Transaction, error) {
	if err := s.store.SetPaid(ctx, id, paid); err != nil {
		return core.Transaction{}, fmt.Errorf("set paid: %w", err)
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reload transaction: %w", err)
	}
	if paid {
		s.publish(ctx, amqp.NewTransactionEvent(amqp.EventPaid, t.ID, t.GroupID, t.DueDate.String()))
	}
	return t, nil
}

// ListMonth returns the month's transactions classified against today.
func (s *TransactionService) ListMonth(ctx context.Context, year, month int, today core.Date) ([]TransactionView, error) {
	from, to, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list month: %w", err)
	}
	return classifyAll(txs, today), nil
}

// ListGroup returns every row of an installment plan or recurrence series
// classified against today.
func (s *TransactionService) ListGroup(ctx context.Context, groupID string, today core.Date) ([]TransactionView, error) {
	txs, err := s.store.ListGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group: %w", err)
	}
	return classifyAll(txs, today), nil
}

// CardStatement returns the card's charges whose billing date falls in the
// given month, with the statement total and due date.
func (s *TransactionService) CardStatement(ctx context.Context, cardID int64, year, month int, today core.Date) (CardStatement, error) {
	from, to, err := monthBounds(year, month)
	if err != nil {
		return CardStatement{}, err
	}
	card, err := s.card(ctx, cardID)
	if err != nil {
		return CardStatement{}, err
	}
	txs, err := s.store.ListCardTransactionsBetween(ctx, cardID, from, to)
	if err != nil {
		return CardStatement{}, fmt.Errorf("list card statement: %w", err)
	}
	due, err := StatementDueDate(from, card)
	if err != nil {
		return CardStatement{}, err
	}

	st := CardStatement{
		Card:         card,
		Year:         year,
		Month:        month,
		DueDate:      due,
		Transactions: classifyAll(txs, today),
	}
	for _, t := range txs {
		st.Total.Cents += t.Amount.Cents
	}
	return st, nil
}

func (s *TransactionService) card(ctx context.Context, id int64) (core.Card, error) {
	load := func() (core.Card, error) {
		c, err := s.store.GetCard(ctx, id)
		if err != nil {
			return core.Card{}, fmt.Errorf("load card: %w", err)
		}
		return c, nil
	}
	if s.cards == nil {
		return load()
	}
	return s.cards.GetOrLoad(cardKey(id), load)
}

func cardKey(id int64) string {
	return "card:" + strconv.FormatInt(id, 10)
}

func (s *TransactionService) save(ctx context.Context, rows []core.Transaction) ([]core.Transaction, error) {
	saved, err := s.store.InsertTransactions(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("save transactions: %w", err)
	}
	for _, t := range saved {
		s.publish(ctx, amqp.NewTransactionEvent(amqp.EventCreated, t.ID, t.GroupID, t.DueDate.String()))
	}
	return saved, nil
}

// publish never fails the caller: the row is already stored.
func (s *TransactionService) publish(ctx context.Context, event *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", event.Type,
			"id", event.ID,
			"error", err)
	}
}

func classifyAll(txs []core.Transaction, today core.Date) []TransactionView {
	out := make([]TransactionView, len(txs))
	for i, t := range txs {
		out[i] = TransactionView{Transaction: t, Status: ClassifyDueStatus(t.DueDate, t.IsPaid, today)}
	}
	return out
}

func monthBounds(year, month int) (core.Date, core.Date, error) {
	from := core.NewDate(year, month, 1)
	if err := from.Validate(); err != nil {
		return core.Date{}, core.Date{}, err
	}
	return from, core.NewDate(year, month, core.DaysInMonth(year, month)), nil
}
