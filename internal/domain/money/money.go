// Package money converts between decimal amount strings and integer cents.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ParseCents parses a decimal amount such as "1,250.50" or "$12" into cents.
// Amounts with more than two fractional digits are rejected rather than rounded.
func ParseCents(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimPrefix(clean, "$")
	if strings.HasPrefix(clean, "-$") {
		clean = "-" + strings.TrimPrefix(clean, "-$")
	}
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("could not parse amount %q: %w", s, err)
	}

	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	return cents.IntPart(), nil
}

// Format renders cents as a fixed two-decimal amount, e.g. 10050 -> "100.50".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// FormatWithCurrency renders cents with an upper-case ISO currency suffix.
func FormatWithCurrency(cents int64, currency string) string {
	if currency == "" {
		return Format(cents)
	}
	return Format(cents) + " " + strings.ToUpper(currency)
}
