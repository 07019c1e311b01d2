package report

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders d with two decimals and thousands separators (e.g. "-1,234.50").
func FormatAmount(d decimal.Decimal) string {
	formatted := d.Abs().StringFixed(displayPlaces)
	intPart, decPart, _ := strings.Cut(formatted, ".")

	out := groupThousands(intPart) + "." + decPart
	if d.Round(displayPlaces).IsNegative() {
		return "-" + out
	}
	return out
}

// FormatWhole renders d rounded to a whole number with thousands separators (e.g. "2,050").
func FormatWhole(d decimal.Decimal) string {
	out := groupThousands(d.Abs().StringFixed(0))
	if d.Round(0).IsNegative() {
		return "-" + out
	}
	return out
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	if n < 0 {
		return "-" + groupThousands(strconv.Itoa(-n))
	}
	return groupThousands(strconv.Itoa(n))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var builder strings.Builder
	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
