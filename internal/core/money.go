// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals; rounding happens only when a displayed
// total is computed.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// RoundMoney rounds half away from zero to two decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount converts a user supplied decimal string into an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Unlike
// validation, it does not reject zero or negative values.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("1.234,56") -> 1234.56, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// "1.234,56" uses dots for grouping
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatBRL formats an amount as Brazilian currency (e.g., "R$ 1.234,56").
func FormatBRL(d decimal.Decimal) string {
	f, _ := RoundMoney(d).Float64()
	if f < 0 {
		return "-R$ " + brPrinter.Sprintf("%.2f", -f)
	}
	return "R$ " + brPrinter.Sprintf("%.2f", f)
}
