package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// UnpaidLister lists unpaid transactions due on or before a date.
type UnpaidLister interface {
	ListUnpaid(ctx context.Context, through core.Date) ([]core.Transaction, error)
}

// StatusReport summarizes one status pass.
type StatusReport struct {
	Today        core.Date
	Overdue      int
	DueToday     int
	Published    int
	OverdueTotal core.Money
}

// StatusProcessor scans unpaid transactions and announces overdue ones.
// A transaction is announced once, on the first pass after it becomes
// overdue. The watermark lives in memory, so a restarted worker announces
// every overdue row once more.
type StatusProcessor struct {
	store     UnpaidLister
	publisher EventPublisher

	mu sync.Mutex
	// announcedThrough is the day of the last pass whose overdue events were
	// all published; rows due before it were overdue on that day.
	announcedThrough core.Date
}

// NewStatusProcessor creates a status processor. publisher may be nil.
func NewStatusProcessor(store UnpaidLister, publisher EventPublisher) *StatusProcessor {
	return &StatusProcessor{
		store:     store,
		publisher: publisher,
	}
}

// ProcessStatuses classifies every unpaid transaction due through today and
// publishes an overdue event for each one that became overdue since the last
// successful pass.
func (p *StatusProcessor) ProcessStatuses(ctx context.Context, today core.Date) (StatusReport, error) {
	if p.store == nil {
		return StatusReport{}, fmt.Errorf("processor not properly initialized")
	}

	unpaid, err := p.store.ListUnpaid(ctx, today)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list unpaid transactions: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	report := StatusReport{Today: today}
	failed := false
	for _, t := range unpaid {
		switch ClassifyDueStatus(t.DueDate, t.IsPaid, today) {
		case core.StatusDueToday:
			report.DueToday++
		case core.StatusOverdue:
			report.Overdue++
			report.OverdueTotal.Cents += t.Amount.Cents
			if !p.newlyOverdue(t) {
				continue
			}
			if p.publishOverdue(ctx, t) {
				report.Published++
			} else {
				failed = true
			}
		}
	}
	// A failed publish keeps the watermark so the next pass retries; rows
	// already sent in this pass are sent again.
	if p.publisher != nil && !failed && today.After(p.announcedThrough) {
		p.announcedThrough = today
	}

	slog.InfoContext(ctx, "Status processing complete",
		"today", today.String(),
		"overdue", report.Overdue,
		"due_today", report.DueToday,
		"overdue_total", report.OverdueTotal.String(),
		"published", report.Published)

	return report, nil
}

func (p *StatusProcessor) newlyOverdue(t core.Transaction) bool {
	return p.announcedThrough.IsZero() || !t.DueDate.Before(p.announcedThrough)
}

func (p *StatusProcessor) publishOverdue(ctx context.Context, t core.Transaction) bool {
	if p.publisher == nil {
		return false
	}
	event := amqp.NewTransactionEvent(amqp.EventOverdue, t.ID, t.GroupID, t.DueDate.String())
	if err := p.publisher.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish overdue event",
			"id", t.ID,
			"due_date", t.DueDate.String(),
			"error", err)
		return false
	}
	return true
}

// HandleEvent logs a transaction event consumed from the queue.
func (p *StatusProcessor) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if _, err := core.ParseDate(event.DueDate); err != nil {
		return fmt.Errorf("event %s for transaction %d: %w", event.Type, event.ID, err)
	}
	slog.InfoContext(ctx, "Transaction event received",
		"type", event.Type,
		"id", event.ID,
		"group_id", event.GroupID,
		"due_date", event.DueDate)
	return nil
}
