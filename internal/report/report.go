// Package report turns an allocation result into figures a user can read in
// their own currency. Search results are copied, never modified: cost and
// yield in the base currency are passed through exactly.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// NoCombinationMessage is shown when the search window holds no feasible purchase.
const NoCombinationMessage = "Budget too low for any package."

const displayPlaces = 2

// Input describes the request a quote answers.
type Input struct {
	Amount   float64
	Margin   float64
	Currency currency.Code
	Base     currency.Code
	Rate     float64
	Spec     allocator.BudgetSpec
	Policy   allocator.Policy
}

// Line is one catalog entry with the number of units to buy.
type Line struct {
	Price float64 `json:"price"`
	Yield int     `json:"yield"`
	Count int     `json:"count"`
}

// Quote is the user-facing view of one search.
type Quote struct {
	Found      bool            `json:"found"`
	Currency   currency.Code   `json:"currency"`
	Base       currency.Code   `json:"baseCurrency"`
	Rate       float64         `json:"rate"`
	Policy     string          `json:"policy"`
	Budget     float64         `json:"budgetBase"`
	Margin     float64         `json:"marginBase"`
	Lines      []Line          `json:"packages,omitempty"`
	TotalYield int             `json:"totalYield"`
	Cost       float64         `json:"costBase"`
	Invested   decimal.Decimal `json:"invested"`
	Remaining  decimal.Decimal `json:"remaining"`
	Overspent  bool            `json:"overspent"`
	Message    string          `json:"message"`
}

// Build assembles a Quote for result.
func Build(result allocator.Result, catalog allocator.Catalog, in Input) Quote {
	q := Quote{
		Found:    result.Found(),
		Currency: in.Currency,
		Base:     in.Base,
		Rate:     in.Rate,
		Policy:   in.Policy.String(),
		Budget:   in.Spec.Budget,
		Margin:   in.Spec.Margin,
	}

	if !q.Found {
		q.Invested = decimal.Zero
		q.Remaining = decimal.NewFromFloat(in.Amount).Round(displayPlaces)
		q.Message = NoCombinationMessage
		return q
	}

	best := result.Best
	q.Lines = make([]Line, len(catalog))
	for i, pkg := range catalog {
		q.Lines[i] = Line{Price: pkg.Price, Yield: pkg.Yield, Count: best.Counts[i]}
	}
	q.TotalYield = best.Yield
	q.Cost = best.Cost

	invested := ToUserCurrency(best.Cost, in.Rate)
	remaining := decimal.NewFromFloat(in.Amount).Sub(invested)

	q.Invested = invested.Round(displayPlaces)
	q.Overspent = remaining.IsNegative()
	q.Remaining = remaining.Abs().Round(displayPlaces)
	q.Message = "Best combination found"

	return q
}

// ToUserCurrency converts a base-currency amount back using rateToBase.
func ToUserCurrency(baseAmount, rateToBase float64) decimal.Decimal {
	if rateToBase <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(baseAmount).Div(decimal.NewFromFloat(rateToBase))
}

// Summary renders the quote as short human-readable lines.
func (q Quote) Summary() []string {
	if !q.Found {
		return []string{q.Message}
	}

	lines := []string{
		fmt.Sprintf("Exchange rate: 1 %s = %s %s", q.Currency, FormatAmount(decimal.NewFromFloat(q.Rate)), q.Base),
		fmt.Sprintf("Budget: %s %s", FormatWhole(decimal.NewFromFloat(q.Budget)), q.Base),
	}
	for _, line := range q.Lines {
		lines = append(lines, fmt.Sprintf("%s units (%s %s): %dx",
			FormatCount(line.Yield), FormatAmount(decimal.NewFromFloat(line.Price)), q.Base, line.Count))
	}
	lines = append(lines,
		fmt.Sprintf("Total units: %s", FormatCount(q.TotalYield)),
		fmt.Sprintf("Total price: %s %s", FormatAmount(decimal.NewFromFloat(q.Cost)), q.Base),
		fmt.Sprintf("Invested amount: %s %s", FormatAmount(q.Invested), q.Currency),
	)
	if q.Overspent {
		lines = append(lines, fmt.Sprintf("Overspend: %s %s", FormatAmount(q.Remaining), q.Currency))
	} else {
		lines = append(lines, fmt.Sprintf("Remaining amount: %s %s", FormatAmount(q.Remaining), q.Currency))
	}
	return lines
}
