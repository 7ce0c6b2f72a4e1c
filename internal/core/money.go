// Package core holds the ledger's domain types and money parsing.
//
// Amounts travel through the system as integer cents. Parsing accepts the
// decimal strings users type in chat and converts them with half-up
// rounding on the third decimal place.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountCents converts a decimal string to positive cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for invalid formats, signed values, or zero.
//
// Examples:
//
//	ParseAmountCents("12.34") -> 1234, nil
//	ParseAmountCents("12,34") -> 1234, nil
//	ParseAmountCents("12.346") -> 1235, nil (rounds up)
func ParseAmountCents(s string) (int64, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "+") || strings.HasPrefix(strings.TrimSpace(s), "-") {
		return 0, ErrInvalidAmount
	}
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseBalanceCents converts a decimal string to signed cents. Account
// balances may be negative (overdraft is not an error condition), so a
// leading minus is accepted here, unlike transaction amounts.
func ParseBalanceCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if negative {
		cents = -cents
	}
	return cents, nil
}

func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return 0, ErrInvalidAmount
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
	// Prevent overflow in iv*100 + fracCents, where fracCents can reach 99
	const maxSafeInt64 = (1<<63 - 1 - 99) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; half-up rounding on the third
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
	return iv*100 + fracCents, nil
}

// String formats the amount as a decimal with two fractional digits, for
// chat replies. Use cents for calculations.
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
