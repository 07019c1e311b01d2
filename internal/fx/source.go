package fx

import (
	"context"
	"fmt"
	"math"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// Source is a single upstream exchange-rate API.
type Source interface {
	Name() string
	// Latest returns how many units of each target one unit of from buys.
	Latest(ctx context.Context, from currency.Code, to ...currency.Code) (map[currency.Code]float64, error)
}

// Provider resolves rates relative to a fixed base currency.
type Provider interface {
	// RateToBase returns how many base units one unit of code buys.
	RateToBase(ctx context.Context, code currency.Code) (float64, error)
	// RatesFromBase returns how many units of each code one base unit buys.
	RatesFromBase(ctx context.Context, codes ...currency.Code) (map[currency.Code]float64, error)
}

// Recorder receives lookup observations.
type Recorder interface {
	ObserveLookup(source, outcome string)
	ObserveCache(outcome string)
}

// Lookup and cache outcomes reported to a Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
)

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(string, string) {}
func (nopRecorder) ObserveCache(string)          {}

// pickRates keeps the requested targets and rejects missing or unusable values.
func pickRates(rates map[string]float64, to []currency.Code) (map[currency.Code]float64, error) {
	out := make(map[currency.Code]float64, len(to))
	for _, code := range to {
		rate, ok := rates[string(code)]
		if !ok {
			return nil, fmt.Errorf("%w: missing rate for %s", ErrMalformedResponse, code)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return nil, fmt.Errorf("%w: invalid rate %g for %s", ErrMalformedResponse, rate, code)
		}
		out[code] = rate
	}
	return out, nil
}
