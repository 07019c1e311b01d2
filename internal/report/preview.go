package report

import (
	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// Conversion is an amount expressed in another currency.
type Conversion struct {
	Currency currency.Code   `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// Preview converts a base-currency amount using rates (units of each code per
// base unit), in the order of codes. Codes without a rate are skipped.
func Preview(amount float64, codes []currency.Code, rates map[currency.Code]float64) []Conversion {
	base := decimal.NewFromFloat(amount)
	out := make([]Conversion, 0, len(codes))
	for _, code := range codes {
		rate, ok := rates[code]
		if !ok {
			continue
		}
		out = append(out, Conversion{
			Currency: code,
			Amount:   base.Mul(decimal.NewFromFloat(rate)).Round(displayPlaces),
		})
	}
	return out
}
