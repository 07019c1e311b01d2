package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/nuts-optimizer/internal/application"
	"github.com/eugenenazirov/nuts-optimizer/internal/config"
	"github.com/eugenenazirov/nuts-optimizer/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("nuts-optimizer", "Package Budget Optimizer - picks the package mix with the most yield for a budget")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	baseCurrency := kingpinApp.Flag("base-currency", "Currency the catalog is priced in").String()
	currencies := kingpinApp.Flag("currencies", "Comma-separated currencies users may budget in").String()
	tolerancePolicy := kingpinApp.Flag("tolerance-policy", "Default tolerance policy (window or ceiling)").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	fxCacheTTL := kingpinApp.Flag("fx-cache-ttl", "How long fetched exchange rates are reused").Duration()

	serveCmd := kingpinApp.Command("serve", "Run the HTTP API").Default()

	quoteCmd := kingpinApp.Command("quote", "Print the best package mix for one budget and exit")
	quoteArgs := quoteFlags{
		Amount:   quoteCmd.Flag("amount", "Budget in the chosen currency").Required().Float64(),
		Currency: quoteCmd.Flag("currency", "Currency of amount and margin").Default("INR").String(),
		Margin:   quoteCmd.Flag("margin", "Spending tolerance in the chosen currency").Default("0").Float64(),
		Policy:   quoteCmd.Flag("policy", "Tolerance policy (window or ceiling); defaults to the configured one").String(),
	}

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *baseCurrency != "" {
		overrides.BaseCurrency = baseCurrency
	}

	if *currencies != "" {
		overrides.Currencies = currencies
	}

	if *tolerancePolicy != "" {
		overrides.TolerancePolicy = tolerancePolicy
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *fxCacheTTL > 0 {
		overrides.FXCacheTTL = fxCacheTTL
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case quoteCmd.FullCommand():
		rates := application.NewRateProvider(cfg, logger, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.FX.Timeout)
		defer cancel()
		if err := runQuote(ctx, cfg, rates, quoteArgs.values(), os.Stdout); err != nil {
			logger.Error("quote failed", zap.Error(err))
			os.Exit(1)
		}
	case serveCmd.FullCommand():
		serve(cfg, logger)
	}
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
