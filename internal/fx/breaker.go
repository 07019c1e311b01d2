package fx

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// BreakerSettings controls when a source is taken out of rotation.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker; zero means 5.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again; zero means 30s.
	Timeout time.Duration
}

type breakerSource struct {
	next    Source
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerSource guards next with a circuit breaker. While the breaker is
// open Latest fails immediately with gobreaker.ErrOpenState.
func NewBreakerSource(next Source, settings BreakerSettings, logger *zap.Logger) Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	failures := settings.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fx-" + next.Name(),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the upstream's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("exchange rate breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &breakerSource{next: next, breaker: breaker}
}

func (b *breakerSource) Name() string {
	return b.next.Name()
}

func (b *breakerSource) Latest(ctx context.Context, from currency.Code, to ...currency.Code) (map[currency.Code]float64, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Latest(ctx, from, to...)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[currency.Code]float64), nil
}
