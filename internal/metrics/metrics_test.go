package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
	"github.com/eugenenazirov/nuts-optimizer/internal/fx"
)

var (
	_ allocator.Recorder = (*Metrics)(nil)
	_ fx.Recorder        = (*Metrics)(nil)
)

func TestObserveSearch(t *testing.T) {
	m := New()

	m.ObserveSearch("window", allocator.OutcomeFound, time.Millisecond)
	m.ObserveSearch("window", allocator.OutcomeFound, time.Millisecond)
	m.ObserveSearch("ceiling", allocator.OutcomeEmpty, time.Millisecond)

	if got := testutil.ToFloat64(m.searches.WithLabelValues("window", allocator.OutcomeFound)); got != 2 {
		t.Fatalf("expected 2 found searches, got %v", got)
	}
	if got := testutil.ToFloat64(m.searches.WithLabelValues("ceiling", allocator.OutcomeEmpty)); got != 1 {
		t.Fatalf("expected 1 empty search, got %v", got)
	}
}

func TestObserveLookupAndCache(t *testing.T) {
	m := New()

	m.ObserveLookup("frankfurter", fx.OutcomeFailure)
	m.ObserveLookup("open-er-api", fx.OutcomeSuccess)
	m.ObserveCache(fx.OutcomeHit)

	if got := testutil.ToFloat64(m.fxLookups.WithLabelValues("frankfurter", fx.OutcomeFailure)); got != 1 {
		t.Fatalf("expected 1 failed lookup, got %v", got)
	}
	if got := testutil.ToFloat64(m.fxCache.WithLabelValues(fx.OutcomeHit)); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveSearch("window", allocator.OutcomeFound, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "nuts_optimizer_searches_total") {
		t.Fatalf("expected search counter in exposition output")
	}
}
