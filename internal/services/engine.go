package services

import (
	"fmt"

	"fintrack/internal/core"
)

// Expand turns a recurrence rule into rule.OccurrenceCount occurrences.
// The first occurrence is always start, whatever the kind.
func Expand(start core.Date, rule core.RecurrenceRule, amount core.Money, description string) ([]core.Occurrence, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	stepper, err := GetOccurrenceStepper(rule.Kind)
	if err != nil {
		return nil, err
	}

	out := make([]core.Occurrence, rule.OccurrenceCount)
	for i := range out {
		due := stepper.Nth(start, rule, i)
		if err := due.Validate(); err != nil {
			return nil, fmt.Errorf("occurrence %d: %w", i+1, err)
		}
		out[i] = core.Occurrence{
			DueDate:     due,
			Amount:      amount,
			Description: description,
		}
	}
	return out, nil
}

// SplitInstallments divides total into count installments that sum exactly to
// total. Every installment gets floor(total/count) cents except the last,
// which absorbs the remainder.
func SplitInstallments(total core.Money, count int) ([]core.Money, error) {
	if err := validateInstallmentCount(count); err != nil {
		return nil, err
	}
	if total.Cents <= 0 {
		return nil, fmt.Errorf("%w: total must be positive", core.ErrInvalidAmount)
	}
	if total.Cents < int64(count) {
		return nil, fmt.Errorf("%w: %s cannot be split into %d positive installments",
			core.ErrInvalidAmount, total, count)
	}

	base := total.Cents / int64(count)
	out := make([]core.Money, count)
	for i := 0; i < count-1; i++ {
		out[i] = core.Money{Cents: base}
	}
	out[count-1] = core.Money{Cents: total.Cents - base*int64(count-1)}
	return out, nil
}

// InstallmentTotal computes the plan total when the user entered the
// per-installment amount instead of the total.
func InstallmentTotal(perInstallment core.Money, count int) (core.Money, error) {
	if err := validateInstallmentCount(count); err != nil {
		return core.Money{}, err
	}
	if perInstallment.Cents <= 0 {
		return core.Money{}, fmt.Errorf("%w: installment must be positive", core.ErrInvalidAmount)
	}
	total, err := perInstallment.Times(count)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %s x %d overflows", core.ErrInvalidAmount, perInstallment, count)
	}
	return total, nil
}

// PlanInstallments splits total and schedules installment i on
// first.AddMonths(i). The card closing day is not re-applied per installment.
func PlanInstallments(first core.Date, total core.Money, count int, description string) ([]core.Occurrence, error) {
	amounts, err := SplitInstallments(total, count)
	if err != nil {
		return nil, err
	}
	if err := first.Validate(); err != nil {
		return nil, fmt.Errorf("first installment date: %w", err)
	}
	out := make([]core.Occurrence, count)
	for i, amount := range amounts {
		due := first.AddMonths(i)
		if err := due.Validate(); err != nil {
			return nil, fmt.Errorf("installment %d: %w", i+1, err)
		}
		out[i] = core.Occurrence{
			DueDate:     due,
			Amount:      amount,
			Description: InstallmentLabel(description, i+1, count),
		}
	}
	return out, nil
}

func validateInstallmentCount(count int) error {
	if count < 1 || count > core.MaxOccurrences {
		return fmt.Errorf("%w: %d must be between 1 and %d", core.ErrInvalidInstallmentCount, count, core.MaxOccurrences)
	}
	return nil
}

// InstallmentLabel formats a description as "Notebook (2/10)".
func InstallmentLabel(description string, n, count int) string {
	if count <= 1 {
		return description
	}
	return fmt.Sprintf("%s (%d/%d)", description, n, count)
}

// ResolveBillingCycle returns the date that places a card charge in its
// statement. Charges on or after the closing day move to next month's
// statement, keeping the day (clamped); earlier charges are unchanged.
func ResolveBillingCycle(date core.Date, closingDay int) (core.Date, error) {
	if !core.ValidClosingDay(closingDay) {
		return core.Date{}, fmt.Errorf("%w: closing day %d must be between 1 and 31", core.ErrInvalidCard, closingDay)
	}
	if date.Day < closingDay {
		return date, nil
	}
	cycle := date.AddMonths(1)
	if err := cycle.Validate(); err != nil {
		return core.Date{}, fmt.Errorf("billing cycle of %s: %w", date, err)
	}
	return cycle, nil
}

// StatementDueDate returns the card's due day within the month of cycle,
// clamped to the month's length.
func StatementDueDate(cycle core.Date, card core.Card) (core.Date, error) {
	if !core.ValidClosingDay(card.DueDay) {
		return core.Date{}, fmt.Errorf("%w: due day %d must be between 1 and 31", core.ErrInvalidCard, card.DueDay)
	}
	day := min(card.DueDay, core.DaysInMonth(cycle.Year, cycle.Month))
	return core.NewDate(cycle.Year, cycle.Month, day), nil
}

// ClassifyDueStatus derives the display status of a transaction on today.
func ClassifyDueStatus(due core.Date, isPaid bool, today core.Date) core.Status {
	if isPaid {
		return core.StatusPaid
	}
	switch due.Compare(today) {
	case -1:
		return core.StatusOverdue
	case 0:
		return core.StatusDueToday
	default:
		return core.StatusUpcoming
	}
}
