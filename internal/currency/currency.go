package currency

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
)

var (
	// ErrInvalidRate is returned when a rate is zero, negative, or not finite.
	ErrInvalidRate = errors.New("exchange rate must be a finite positive number")
	// ErrInvalidCode is returned for currency codes that are not three letters.
	ErrInvalidCode = errors.New("currency code must be three letters")
)

// Code is an upper-case ISO 4217 currency code.
type Code string

const (
	// DefaultBase is the currency package prices are expressed in.
	DefaultBase Code = "INR"
)

var defaultSupported = []Code{"EUR", "USD", "AUD", "NZD", "INR"}

// DefaultSupported returns the currencies offered to users by default.
func DefaultSupported() []Code {
	out := make([]Code, len(defaultSupported))
	copy(out, defaultSupported)
	return out
}

// ParseCode normalises raw into a Code.
func ParseCode(raw string) (Code, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: got %q", ErrInvalidCode, raw)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: got %q", ErrInvalidCode, raw)
		}
	}
	return Code(code), nil
}

func (c Code) String() string {
	return string(c)
}

// Normalize converts amount and margin into base currency using rateToBase,
// the number of base units one unit of the user's currency buys.
func Normalize(amount, margin, rateToBase float64) (allocator.BudgetSpec, error) {
	if math.IsNaN(rateToBase) || math.IsInf(rateToBase, 0) || rateToBase <= 0 {
		return allocator.BudgetSpec{}, fmt.Errorf("%w: got %g", ErrInvalidRate, rateToBase)
	}
	if !nonNegative(amount) || !nonNegative(margin) {
		return allocator.BudgetSpec{}, fmt.Errorf("%w: amount=%g margin=%g", allocator.ErrInvalidBudget, amount, margin)
	}

	return allocator.BudgetSpec{
		Budget: amount * rateToBase,
		Margin: margin * rateToBase,
	}, nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
