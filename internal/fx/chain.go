package fx

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// Chain tries its sources in order until one succeeds.
type Chain struct {
	base     currency.Code
	sources  []Source
	logger   *zap.Logger
	recorder Recorder
}

// ChainOption configures Chain behaviour.
type ChainOption func(*Chain)

// WithRecorder reports every source attempt to recorder.
func WithRecorder(recorder Recorder) ChainOption {
	return func(c *Chain) {
		if recorder != nil {
			c.recorder = recorder
		}
	}
}

// NewChain creates a Provider for base backed by sources, primary first.
func NewChain(base currency.Code, logger *zap.Logger, sources []Source, opts ...ChainOption) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Chain{
		base:     base,
		sources:  sources,
		logger:   logger,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the currency all rates are relative to.
func (c *Chain) Base() currency.Code {
	return c.base
}

func (c *Chain) RateToBase(ctx context.Context, code currency.Code) (float64, error) {
	if code == c.base {
		return 1.0, nil
	}

	return firstSuccess(ctx, c, code, func(src Source) (float64, error) {
		rates, err := src.Latest(ctx, code, c.base)
		if err != nil {
			return 0, err
		}
		return rates[c.base], nil
	})
}

func (c *Chain) RatesFromBase(ctx context.Context, codes ...currency.Code) (map[currency.Code]float64, error) {
	targets := make([]currency.Code, 0, len(codes))
	for _, code := range codes {
		if code != c.base {
			targets = append(targets, code)
		}
	}
	if len(targets) == 0 {
		return map[currency.Code]float64{}, nil
	}

	return firstSuccess(ctx, c, c.base, func(src Source) (map[currency.Code]float64, error) {
		return src.Latest(ctx, c.base, targets...)
	})
}

func firstSuccess[T any](ctx context.Context, c *Chain, code currency.Code, fetch func(Source) (T, error)) (T, error) {
	var (
		zero T
		errs []error
	)

	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		value, err := fetch(src)
		if err == nil {
			c.recorder.ObserveLookup(src.Name(), OutcomeSuccess)
			if i > 0 {
				c.logger.Info("exchange rate served by fallback source",
					zap.String("source", src.Name()),
					zap.String("currency", string(code)),
				)
			}
			return value, nil
		}

		c.recorder.ObserveLookup(src.Name(), OutcomeFailure)
		c.logger.Warn("exchange rate source failed",
			zap.String("source", src.Name()),
			zap.String("currency", string(code)),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}

	if len(errs) == 0 {
		return zero, fmt.Errorf("%w: no sources configured for %s", ErrRateUnavailable, code)
	}
	return zero, fmt.Errorf("%w: %s: %w", ErrRateUnavailable, code, errors.Join(errs...))
}
