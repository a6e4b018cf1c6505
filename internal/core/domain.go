package core

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	Single         RecurrenceKind = "single"
	Weekly         RecurrenceKind = "weekly"
	Monthly        RecurrenceKind = "monthly"
	Yearly         RecurrenceKind = "yearly"
	CustomInterval RecurrenceKind = "custom-interval"
)

const (
	StatusPaid     Status = "paid"
	StatusOverdue  Status = "overdue"
	StatusDueToday Status = "due-today"
	StatusUpcoming Status = "upcoming"
)

const maxDescriptionLen = 200

// MaxOccurrences bounds recurrence series and installment plans: one hundred
// years of monthly occurrences.
const MaxOccurrences = 1200

type (
	RecurrenceKind string

	// Status is the display status of a transaction relative to a given day.
	Status string

	Money struct {
		Cents int64
	}

	// RecurrenceRule describes how an occurrence repeats.
	RecurrenceRule struct {
		Kind            RecurrenceKind
		OccurrenceCount int // total occurrences, including the first
		IntervalDays    int // custom-interval only
		Weekday         int // weekly only, Sunday = 0
	}

	// Occurrence is one generated instance of a recurrence or installment plan.
	Occurrence struct {
		DueDate     Date
		Amount      Money
		Description string
	}

	Card struct {
		ID         int64
		Name       string
		ClosingDay int
		DueDay     int
	}

	Transaction struct {
		ID                int64
		DueDate           Date
		Amount            Money
		Description       string
		IsPaid            bool
		CardID            *int64
		GroupID           string // shared by every row of an installment plan or recurrence series
		InstallmentNumber int    // 1-based, 0 when not part of a plan
		InstallmentCount  int
	}
)

var (
	ErrInvalidDay       = fmt.Errorf("%w: invalid day", ErrInvalidDate)
	ErrInvalidMonth     = fmt.Errorf("%w: invalid month", ErrInvalidDate)
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
)

// Engine error taxonomy.
var (
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidRule             = errors.New("invalid recurrence rule")
	ErrInvalidInstallmentCount = errors.New("invalid installment count")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidCard             = errors.New("invalid card")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the rule fields relevant to its kind.
func (r RecurrenceRule) Validate() error {
	if r.OccurrenceCount < 1 {
		return fmt.Errorf("%w: occurrence count %d must be at least 1", ErrInvalidRule, r.OccurrenceCount)
	}
	if r.OccurrenceCount > MaxOccurrences {
		return fmt.Errorf("%w: occurrence count %d exceeds %d", ErrInvalidRule, r.OccurrenceCount, MaxOccurrences)
	}
	switch r.Kind {
	case Single, Monthly, Yearly:
	case Weekly:
		if r.Weekday < 0 || r.Weekday > 6 {
			return fmt.Errorf("%w: weekday %d must be between 0 and 6", ErrInvalidRule, r.Weekday)
		}
	case CustomInterval:
		if r.IntervalDays < 1 {
			return fmt.Errorf("%w: interval of %d days must be at least 1", ErrInvalidRule, r.IntervalDays)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, r.Kind)
	}
	return nil
}

// ValidClosingDay reports whether day can be a card closing or due day.
func ValidClosingDay(day int) bool {
	return day >= 1 && day <= 31
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCard)
	}
	if !ValidClosingDay(c.ClosingDay) {
		return fmt.Errorf("%w: closing day %d must be between 1 and 31", ErrInvalidCard, c.ClosingDay)
	}
	if !ValidClosingDay(c.DueDay) {
		return fmt.Errorf("%w: due day %d must be between 1 and 31", ErrInvalidCard, c.DueDay)
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.DueDate.Validate(); err != nil {
		return err
	}
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.InstallmentNumber < 0 || t.InstallmentNumber > t.InstallmentCount {
		return fmt.Errorf("installment %d of %d out of range", t.InstallmentNumber, t.InstallmentCount)
	}
	return nil
}

// ValidateDescription rejects blank and overlong descriptions.
func ValidateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	return nil
}

// NormalizeDescription composes unicode to NFC and collapses runs of whitespace,
// so "Café" typed on different keyboards is stored identically.
func NormalizeDescription(desc string) string {
	return strings.Join(strings.Fields(norm.NFC.String(desc)), " ")
}
