package forms

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Percentages are stored as fractional values (0.015 means 1.5%) and edited
// x100. Both conversions are pure exponent shifts, so repeated
// edit/display cycles cannot accumulate floating error.

// ParsePercent converts operator input like "1.5" to the stored 0.015.
func ParsePercent(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number: %q", raw)
	}
	return d.Shift(-2), nil
}

// DisplayPercent renders a stored fraction for editing, two decimal places.
func DisplayPercent(d decimal.Decimal) string {
	return d.Shift(2).StringFixed(2)
}
