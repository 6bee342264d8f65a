// Package core provides money parsing and handling utilities.
//
// This file contains the pt-BR currency formatter used on every rendered
// quote and the parser for amounts typed into the item table.
package core

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// maxAmountLen bounds typed amounts; nothing a budget holds comes close.
const maxAmountLen = 32

var (
	plainAmount   = regexp.MustCompile(`^[-+]?\d+([.,]\d+)?$`)
	groupedAmount = regexp.MustCompile(`^[-+]?\d{1,3}(\.\d{3})+,\d+$`)
)

// ParseAmount converts a user-typed number into a decimal.
//
// Both "12.34" and "12,34" are accepted. When both separators appear the
// Brazilian convention applies: dots group thousands and the comma marks the
// decimals ("1.234,56"). Zero and negative values are accepted; the table
// only displays them. Exponents and anything longer than maxAmountLen are
// rejected.
//
// Examples:
//
//	ParseAmount("12,5")     -> 12.5
//	ParseAmount("1.234,56") -> 1234.56
//	ParseAmount("-3")       -> -3
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLen {
		return decimal.Zero, ErrInvalidAmount
	}
	if !plainAmount.MatchString(s) && !groupedAmount.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
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

// FormatBRL renders an amount as Brazilian reais: "R$ 1.234,56".
// Negative amounts are prefixed with a minus sign ("-R$ 10,00"). The value is
// rounded half away from zero to two places.
func FormatBRL(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	neg := rounded.IsNegative()
	fixed := rounded.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(fixed, ".")
	out := "R$ " + groupThousands(intPart) + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatQuantity renders a quantity without trailing zeros, using a decimal comma.
func FormatQuantity(q decimal.Decimal) string {
	return strings.Replace(q.String(), ".", ",", 1)
}
