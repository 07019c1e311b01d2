package fx

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

type stubSource struct {
	name  string
	rates map[currency.Code]float64
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string {
	return s.name
}

func (s *stubSource) Latest(_ context.Context, _ currency.Code, to ...currency.Code) (map[currency.Code]float64, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[currency.Code]float64, len(to))
	for _, code := range to {
		rate, ok := s.rates[code]
		if !ok {
			return nil, ErrMalformedResponse
		}
		out[code] = rate
	}
	return out, nil
}

type stubProvider struct {
	rate  float64
	rates map[currency.Code]float64
	err   error
	calls atomic.Int32
}

func (p *stubProvider) RateToBase(context.Context, currency.Code) (float64, error) {
	p.calls.Add(1)
	return p.rate, p.err
}

func (p *stubProvider) RatesFromBase(context.Context, ...currency.Code) (map[currency.Code]float64, error) {
	p.calls.Add(1)
	return p.rates, p.err
}

var errUpstream = errors.New("upstream down")
