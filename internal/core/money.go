// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and display representations.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts dot (12.34) and comma (12,34) decimal separators as well as
// Brazilian grouped input (1.666,00) and performs half-up rounding on the third
// decimal place. An optional "R$" prefix is ignored. The result is always
// positive cents. Returns an error for invalid formats, negative values, or
// zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("1.666,00") -> 166600, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}

	intPart, fracPart, ok := splitDecimal(s)
	if !ok {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// splitDecimal separates the integer digits (grouping removed) from the
// fractional digits. When both separators appear the last one is the decimal
// mark. Repeated separators are grouping and need three-digit groups.
func splitDecimal(s string) (intPart, fracPart string, ok bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		decimal, group := ",", "."
		if lastDot > lastComma {
			decimal, group = ".", ","
		}
		if strings.Count(s, decimal) != 1 {
			return "", "", false
		}
		whole, frac, _ := strings.Cut(s, decimal)
		digits, ok := ungroup(whole, group)
		return digits, frac, ok
	case dots > 1:
		digits, ok := ungroup(s, ".")
		return digits, "", ok
	case commas > 1:
		digits, ok := ungroup(s, ",")
		return digits, "", ok
	default:
		s = strings.ReplaceAll(s, ",", ".")
		whole, frac, _ := strings.Cut(s, ".")
		return whole, frac, true
	}
}

func ungroup(s, sep string) (string, bool) {
	groups := strings.Split(s, sep)
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

// ParseMoney is ParseDecimalToCents returning a Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// Times multiplies m by n, failing with ErrInvalidAmount on overflow.
func (m Money) Times(n int) (Money, error) {
	if m.Cents < 0 || n < 0 {
		return Money{}, ErrInvalidAmount
	}
	if n == 0 || m.Cents == 0 {
		return Money{}, nil
	}
	if m.Cents > math.MaxInt64/int64(n) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: m.Cents * int64(n)}, nil
}

// String formats m as a plain decimal with a dot separator (1666.00).
func (m Money) String() string {
	neg := m.Cents < 0
	c := m.Cents
	if neg {
		c = -c
	}
	s := strconv.FormatInt(c/100, 10) + "." + twoDigits(c%100)
	if neg {
		return "-" + s
	}
	return s
}

// FormatBRL formats cents in the Brazilian display format, e.g. "R$ 1.666,00".
func FormatBRL(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := "R$ " + b.String() + "," + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
