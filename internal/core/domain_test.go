package core

import (
	"errors"
	"testing"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	tests := []struct {
		name string
		rule RecurrenceRule
		ok   bool
	}{
		{"single", RecurrenceRule{Kind: Single, OccurrenceCount: 1}, true},
		{"single repeated", RecurrenceRule{Kind: Single, OccurrenceCount: 3}, true},
		{"monthly", RecurrenceRule{Kind: Monthly, OccurrenceCount: 12}, true},
		{"yearly", RecurrenceRule{Kind: Yearly, OccurrenceCount: 2}, true},
		{"weekly sunday", RecurrenceRule{Kind: Weekly, OccurrenceCount: 2, Weekday: 0}, true},
		{"weekly saturday", RecurrenceRule{Kind: Weekly, OccurrenceCount: 2, Weekday: 6}, true},
		{"custom", RecurrenceRule{Kind: CustomInterval, OccurrenceCount: 2, IntervalDays: 10}, true},
		{"zero count", RecurrenceRule{Kind: Monthly, OccurrenceCount: 0}, false},
		{"count at limit", RecurrenceRule{Kind: Monthly, OccurrenceCount: MaxOccurrences}, true},
		{"count over limit", RecurrenceRule{Kind: Monthly, OccurrenceCount: MaxOccurrences + 1}, false},
		{"huge count", RecurrenceRule{Kind: Single, OccurrenceCount: 200000000}, false},
		{"weekday 7", RecurrenceRule{Kind: Weekly, OccurrenceCount: 2, Weekday: 7}, false},
		{"weekday negative", RecurrenceRule{Kind: Weekly, OccurrenceCount: 2, Weekday: -1}, false},
		{"zero interval", RecurrenceRule{Kind: CustomInterval, OccurrenceCount: 2}, false},
		{"unknown kind", RecurrenceRule{Kind: "fortnightly", OccurrenceCount: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidRule) {
				t.Fatalf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestCardValidate(t *testing.T) {
	good := Card{Name: "Visa", ClosingDay: 31, DueDay: 10}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Card{
		{Name: "", ClosingDay: 10, DueDay: 10},
		{Name: "x", ClosingDay: 0, DueDay: 10},
		{Name: "x", ClosingDay: 32, DueDay: 10},
		{Name: "x", ClosingDay: 10, DueDay: 0},
	}
	for i, c := range bads {
		if err := c.Validate(); !errors.Is(err, ErrInvalidCard) {
			t.Fatalf("case %d expected ErrInvalidCard, got %v", i, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		DueDate:     NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{DueDate: Date{}, Description: "a", Amount: Money{Cents: 1}},
		{DueDate: NewDate(2025, 2, 30), Description: "a", Amount: Money{Cents: 1}},
		{DueDate: NewDate(2025, 1, 1), Description: "  ", Amount: Money{Cents: 1}},
		{DueDate: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}},
		{DueDate: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, InstallmentNumber: 3, InstallmentCount: 2},
	}
	for i, tr := range bads {
		if err := tr.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNormalizeDescription(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	got := NormalizeDescription("  Cafe\u0301   da   manh\u00e3 ")
	if got != "Caf\u00e9 da manh\u00e3" {
		t.Fatalf("got %q", got)
	}
}
