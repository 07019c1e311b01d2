package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
	"github.com/eugenenazirov/nuts-optimizer/internal/api"
	"github.com/eugenenazirov/nuts-optimizer/internal/config"
	"github.com/eugenenazirov/nuts-optimizer/internal/fx"
	"github.com/eugenenazirov/nuts-optimizer/internal/metrics"
	"github.com/eugenenazirov/nuts-optimizer/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage  storage.Storage
	searcher allocator.Searcher
	rates    *fx.Cache
	metrics  *metrics.Metrics
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	if err := store.SetCatalog(cfg.Catalog); err != nil {
		return nil, fmt.Errorf("failed to apply initial catalog: %w", err)
	}

	m := metrics.New()
	rates := NewRateProvider(cfg, logger, m)
	searcher := allocator.NewInstrumented(allocator.New(), m)

	handler := api.NewHandler(searcher, store, rates,
		api.WithCurrencies(cfg.BaseCurrency, cfg.Currencies),
		api.WithDefaultPolicy(cfg.TolerancePolicy),
		api.WithHandlerLogger(logger),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	server := NewServer(cfg, BuildRootHandler(apiRouter, m.Handler()))

	return &App{
		storage:  store,
		searcher: searcher,
		rates:    rates,
		metrics:  m,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   server,
	}, nil
}

// NewRateProvider assembles the exchange-rate stack: the primary source and,
// when configured, one fallback, each behind its own circuit breaker, queried
// in order and fronted by a TTL cache.
func NewRateProvider(cfg config.Config, logger *zap.Logger, recorder fx.Recorder) *fx.Cache {
	session := &http.Client{Timeout: cfg.FX.Timeout}
	breaker := fx.BreakerSettings{
		ConsecutiveFailures: cfg.FX.BreakerFailures,
		Timeout:             cfg.FX.BreakerTimeout,
	}

	sources := []fx.Source{
		fx.NewBreakerSource(fx.NewFrankfurter(cfg.FX.PrimaryURL, session), breaker, logger),
	}
	if cfg.FX.FallbackURL != "" {
		sources = append(sources, fx.NewBreakerSource(fx.NewOpenER(cfg.FX.FallbackURL, session), breaker, logger))
	}

	chain := fx.NewChain(cfg.BaseCurrency, logger, sources, fx.WithRecorder(recorder))
	return fx.NewCache(chain, cfg.FX.CacheTTL, recorder,
		fx.WithLookupTimeout(time.Duration(len(sources))*cfg.FX.Timeout),
	)
}

// BuildRootHandler mounts the API router and the Prometheus metrics endpoint.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
