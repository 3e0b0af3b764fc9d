// Package money converts between the API's decimal string representation
// of amounts (e.g. "150.00") and the int64 cents stored in the database.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseCents parses a decimal amount string into cents. Values with more
// than two fractional digits are rejected rather than silently rounded.
func ParseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	return d.Mul(hundred).IntPart(), nil
}

// FormatCents formats cents as a decimal string with two fractional digits.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
}
