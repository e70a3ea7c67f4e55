// Package utils provides currency formatting and market-hours helpers
// shared across the CLI.
package utils

import (
	"fmt"
	"strings"
)

const (
	lakh  = 100_000
	crore = 10_000_000
)

// FormatIndianCurrency renders an amount with the rupee sign and Indian
// digit grouping, e.g. ₹12,34,567.89.
func FormatIndianCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	whole, frac, _ := strings.Cut(fmt.Sprintf("%.2f", amount), ".")
	return sign + "₹" + groupIndian(whole) + "." + frac
}

// groupIndian inserts commas per the Indian numbering system: the last
// three digits form one group, every pair after that its own.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := digits[:len(digits)-3]
	if r := len(head) % 2; r == 1 {
		b.WriteString(head[:1])
		head = head[1:]
		if len(head) > 0 {
			b.WriteByte(',')
		}
	}
	for i := 0; i < len(head); i += 2 {
		b.WriteString(head[i : i+2])
		b.WriteByte(',')
	}
	b.WriteString(digits[len(digits)-3:])
	return b.String()
}

// FormatLakhs expresses an amount in lakhs.
func FormatLakhs(amount float64) string {
	return fmt.Sprintf("%.2f L", amount/lakh)
}

// FormatCrores expresses an amount in crores.
func FormatCrores(amount float64) string {
	return fmt.Sprintf("%.2f Cr", amount/crore)
}

// FormatCompact picks the shortest natural unit: crores above one
// crore, lakhs above one lakh, full rupees otherwise.
func FormatCompact(amount float64) string {
	abs := amount
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= crore:
		return FormatCrores(amount)
	case abs >= lakh:
		return FormatLakhs(amount)
	default:
		return FormatIndianCurrency(amount)
	}
}
