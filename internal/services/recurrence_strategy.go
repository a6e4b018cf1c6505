// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurrence expansion.
// Each recurrence kind (single, weekly, monthly, yearly, custom-interval) has
// its own stepper that computes the date of the i-th occurrence directly from
// the start date, so clamping never accumulates across occurrences.

package services

import (
	"fmt"

	"fintrack/internal/core"
)

// OccurrenceStepper is the strategy interface for recurrence kinds.
type OccurrenceStepper interface {
	// Nth returns the due date of occurrence i (0-based). Nth(start, rule, 0)
	// must return start.
	Nth(start core.Date, rule core.RecurrenceRule, i int) core.Date
}

// SingleStepper repeats the start date for every index.
type SingleStepper struct{}

func (SingleStepper) Nth(start core.Date, _ core.RecurrenceRule, _ int) core.Date {
	return start
}

// IntervalStepper adds a fixed number of days per occurrence.
type IntervalStepper struct{}

func (IntervalStepper) Nth(start core.Date, rule core.RecurrenceRule, i int) core.Date {
	return start.AddDays(i * rule.IntervalDays)
}

// WeeklyStepper aligns the second occurrence to the rule's weekday and steps
// by whole weeks from there.
type WeeklyStepper struct{}

// Nth returns start for i == 0. The first aligned date is strictly after start:
// when start already falls on the weekday it moves a full week.
func (WeeklyStepper) Nth(start core.Date, rule core.RecurrenceRule, i int) core.Date {
	if i == 0 {
		return start
	}
	ahead := (rule.Weekday - start.Weekday() + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return start.AddDays(ahead + 7*(i-1))
}

// MonthlyStepper keeps the start's day of month, clamped to short months.
type MonthlyStepper struct{}

func (MonthlyStepper) Nth(start core.Date, _ core.RecurrenceRule, i int) core.Date {
	return start.AddMonths(i)
}

// YearlyStepper keeps month and day, clamping Feb 29 in non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Nth(start core.Date, _ core.RecurrenceRule, i int) core.Date {
	return start.AddYears(i)
}

// recurrenceSteppers maps recurrence kinds to their steppers.
// It is only read after package initialization.
var recurrenceSteppers = map[core.RecurrenceKind]OccurrenceStepper{
	core.Single:         SingleStepper{},
	core.CustomInterval: IntervalStepper{},
	core.Weekly:         WeeklyStepper{},
	core.Monthly:        MonthlyStepper{},
	core.Yearly:         YearlyStepper{},
}

// GetOccurrenceStepper returns the stepper for a recurrence kind.
func GetOccurrenceStepper(kind core.RecurrenceKind) (OccurrenceStepper, error) {
	stepper, ok := recurrenceSteppers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", core.ErrInvalidRule, kind)
	}
	return stepper, nil
}
