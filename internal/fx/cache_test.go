package fx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

func TestCacheServesFreshRate(t *testing.T) {
	t.Parallel()

	next := &stubProvider{rate: 90}
	recorder := &lookupRecorder{}
	c := NewCache(next, time.Minute, recorder)

	for i := 0; i < 3; i++ {
		rate, err := c.RateToBase(context.Background(), "EUR")
		require.NoError(t, err)
		assert.Equal(t, 90.0, rate)
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, []string{OutcomeMiss, OutcomeHit, OutcomeHit}, recorder.cache)
}

func TestCacheExpires(t *testing.T) {
	t.Parallel()

	next := &stubProvider{rate: 90}
	c := NewCache(next, 20*time.Millisecond, nil)

	_, err := c.RateToBase(context.Background(), "EUR")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = c.RateToBase(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	next := &stubProvider{err: ErrRateUnavailable}
	c := NewCache(next, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := c.RateToBase(context.Background(), "EUR")
		require.ErrorIs(t, err, ErrRateUnavailable)
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCacheKeysByCurrency(t *testing.T) {
	t.Parallel()

	next := &stubProvider{rate: 90}
	c := NewCache(next, time.Minute, nil)

	_, err := c.RateToBase(context.Background(), "EUR")
	require.NoError(t, err)
	_, err = c.RateToBase(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())

	c.Flush()
	_, err = c.RateToBase(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestCacheRatesFromBaseReturnsCopies(t *testing.T) {
	t.Parallel()

	next := &stubProvider{rates: map[currency.Code]float64{"EUR": 0.0103, "USD": 0.0119}}
	c := NewCache(next, time.Minute, nil)

	first, err := c.RatesFromBase(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	first["EUR"] = 42

	second, err := c.RatesFromBase(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, 0.0103, second["EUR"])
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCacheConcurrentLookups(t *testing.T) {
	next := &stubProvider{rate: 90}
	c := NewCache(next, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate, err := c.RateToBase(context.Background(), "NZD")
			if err != nil {
				t.Errorf("RateToBase failed: %v", err)
				return
			}
			if rate != 90 {
				t.Errorf("unexpected rate %g", rate)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, next.calls.Load(), int32(32))
	assert.GreaterOrEqual(t, next.calls.Load(), int32(1))
}

// gatedProvider blocks every lookup until release is closed or the lookup's
// context ends.
type gatedProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedProvider() *gatedProvider {
	return &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
}

func (p *gatedProvider) RateToBase(ctx context.Context, _ currency.Code) (float64, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return 90, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (p *gatedProvider) RatesFromBase(context.Context, ...currency.Code) (map[currency.Code]float64, error) {
	return nil, errors.New("not used")
}

func TestCacheCancelledCallerDoesNotFailWaiters(t *testing.T) {
	t.Parallel()

	next := newGatedProvider()
	c := NewCache(next, time.Minute, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.RateToBase(firstCtx, "EUR")
		firstErr <- err
	}()
	<-next.started

	type outcome struct {
		rate float64
		err  error
	}
	second := make(chan outcome, 1)
	go func() {
		rate, err := c.RateToBase(context.Background(), "EUR")
		second <- outcome{rate: rate, err: err}
	}()
	// Give the second caller time to join the in-flight lookup.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(next.release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, 90.0, got.rate)
	case <-time.After(time.Second):
		t.Fatal("waiting caller did not return")
	}

	rate, err := c.RateToBase(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, 90.0, rate)
}

func TestCacheLookupTimeoutBoundsSharedLookup(t *testing.T) {
	t.Parallel()

	next := newGatedProvider()
	c := NewCache(next, time.Minute, nil, WithLookupTimeout(20*time.Millisecond))

	_, err := c.RateToBase(context.Background(), "EUR")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPreviewKeyIsOrderIndependent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, previewKey([]currency.Code{"USD", "EUR"}), previewKey([]currency.Code{"EUR", "USD", "EUR"}))
}
