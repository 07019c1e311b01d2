package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

var envKeys = []string{
	"PORT", "BASE_CURRENCY", "CURRENCIES", "TOLERANCE_POLICY", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "LOG_LEVEL", "FX_PRIMARY_URL", "FX_FALLBACK_URL", "FX_TIMEOUT", "FX_CACHE_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.BaseCurrency != currency.DefaultBase {
		t.Fatalf("expected base %s, got %s", currency.DefaultBase, cfg.BaseCurrency)
	}
	if cfg.TolerancePolicy != allocator.PolicyWindow {
		t.Fatalf("expected window policy by default, got %s", cfg.TolerancePolicy)
	}
	if len(cfg.Catalog) != allocator.CatalogSize {
		t.Fatalf("expected default catalog, got %v", cfg.Catalog)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.FX.CacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m FX cache TTL, got %s", cfg.FX.CacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CURRENCIES", "usd, eur , usd")
	t.Setenv("TOLERANCE_POLICY", "ceiling")
	t.Setenv("FX_CACHE_TTL", "1m")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if want := []currency.Code{"USD", "EUR", "INR"}; !slices.Equal(cfg.Currencies, want) {
		t.Fatalf("expected currencies %v, got %v", want, cfg.Currencies)
	}
	if cfg.TolerancePolicy != allocator.PolicyCeilingOnly {
		t.Fatalf("expected ceiling policy, got %s", cfg.TolerancePolicy)
	}
	if cfg.FX.CacheTTL != time.Minute {
		t.Fatalf("expected 1m cache TTL, got %s", cfg.FX.CacheTTL)
	}
}

func TestLoadRejectsInvalidEnvPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOLERANCE_POLICY", "sometimes")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeYAML(t, `
port: "7100"
base_currency: eur
tolerance_policy: ceiling
enable_request_logging: false
rate_limit:
  rps: 0
catalog:
  - {price: 2, yield: 60}
  - {price: 4, yield: 128}
  - {price: 10, yield: 345}
fx:
  primary_url: http://primary.test
  cache_ttl: 30s
`)

	port := "7200"
	policy := "window"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port, TolerancePolicy: &policy})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.TolerancePolicy != allocator.PolicyWindow {
		t.Fatalf("expected CLI policy to win, got %s", cfg.TolerancePolicy)
	}
	if cfg.BaseCurrency != "EUR" {
		t.Fatalf("expected YAML base currency, got %s", cfg.BaseCurrency)
	}
	if !slices.Contains(cfg.Currencies, currency.Code("EUR")) {
		t.Fatalf("expected base currency among supported currencies, got %v", cfg.Currencies)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env log level to survive, got %s", cfg.LogLevel)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled by YAML")
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected rate limit disabled by YAML, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("expected default burst when YAML omits it, got %d", cfg.RateLimitBurst)
	}
	if cfg.Catalog[2] != (allocator.PackageDefinition{Price: 10, Yield: 345}) {
		t.Fatalf("unexpected catalog %v", cfg.Catalog)
	}
	if cfg.FX.PrimaryURL != "http://primary.test" || cfg.FX.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected FX config %+v", cfg.FX)
	}
}

func TestLoadRejectsBadCatalog(t *testing.T) {
	clearEnv(t)

	path := writeYAML(t, `
catalog:
  - {price: 2, yield: 60}
`)
	if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
		t.Fatalf("expected error for short catalog")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for invalid log level")
	}
}

func TestParseCurrencies(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parseCurrencies("eur,USD, ,aud")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []currency.Code{"EUR", "USD", "AUD"}; !slices.Equal(got, want) {
			t.Fatalf("unexpected currencies: %v", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := parseCurrencies(" , "); err == nil {
			t.Fatalf("expected error for empty string")
		}
		if _, err := parseCurrencies("EUR,EURO"); err == nil {
			t.Fatalf("expected error for invalid code")
		}
	})
}

func TestLoadOrdersCatalogByPrice(t *testing.T) {
	clearEnv(t)

	path := writeYAML(t, `
catalog:
  - {price: 1020, yield: 34500}
  - {price: 409, yield: 12800}
  - {price: 205, yield: 6000}
`)
	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := allocator.DefaultCatalog()
	for i, pkg := range want {
		if cfg.Catalog[i] != pkg {
			t.Fatalf("expected package %v at position %d, got %v", pkg, i, cfg.Catalog[i])
		}
	}
}

func TestLoadRejectsCatalogWithFallingYield(t *testing.T) {
	clearEnv(t)

	path := writeYAML(t, `
catalog:
  - {price: 205, yield: 6000}
  - {price: 409, yield: 5000}
  - {price: 1020, yield: 34500}
`)
	if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
		t.Fatalf("expected error when a pricier package yields less")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
