package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
	"github.com/eugenenazirov/nuts-optimizer/internal/fx"
	"github.com/eugenenazirov/nuts-optimizer/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	BaseCurrency         currency.Code
	Currencies           []currency.Code
	TolerancePolicy      allocator.Policy
	Catalog              allocator.Catalog
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string
	FX                   FXConfig
}

// FXConfig configures the exchange-rate sources.
type FXConfig struct {
	PrimaryURL      string
	FallbackURL     string
	Timeout         time.Duration
	CacheTTL        time.Duration
	BreakerTimeout  time.Duration
	BreakerFailures uint32
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string                        `yaml:"port"`
	BaseCurrency         string                        `yaml:"base_currency"`
	Currencies           []string                      `yaml:"currencies"`
	TolerancePolicy      string                        `yaml:"tolerance_policy"`
	Catalog              []allocator.PackageDefinition `yaml:"catalog"`
	ShutdownGracePeriod  string                        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string                        `yaml:"read_header_timeout"`
	WriteTimeout         string                        `yaml:"write_timeout"`
	IdleTimeout          string                        `yaml:"idle_timeout"`
	EnableRequestLogging *bool                         `yaml:"enable_request_logging"`
	LogLevel             string                        `yaml:"log_level"`
	RateLimit            yamlRateLimit                 `yaml:"rate_limit"`
	FX                   yamlFX                        `yaml:"fx"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlFX struct {
	PrimaryURL      string `yaml:"primary_url"`
	FallbackURL     string `yaml:"fallback_url"`
	Timeout         string `yaml:"timeout"`
	CacheTTL        string `yaml:"cache_ttl"`
	BreakerTimeout  string `yaml:"breaker_timeout"`
	BreakerFailures uint32 `yaml:"breaker_failures"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	BaseCurrency    *string
	Currencies      *string
	TolerancePolicy *string
	RateLimitRPS    *float64
	RateLimitBurst  *int
	LogLevel        *string
	FXCacheTTL      *time.Duration
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables (lowest precedence after defaults)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	cfg.Currencies = ensureBase(cfg.Currencies, cfg.BaseCurrency)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	catalog, err := storage.NormalizeCatalog(cfg.Catalog)
	if err != nil {
		return Config{}, fmt.Errorf("catalog: %w", err)
	}
	cfg.Catalog = catalog

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		BaseCurrency:         currency.DefaultBase,
		Currencies:           currency.DefaultSupported(),
		TolerancePolicy:      allocator.PolicyWindow,
		Catalog:              allocator.DefaultCatalog(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		FX: FXConfig{
			PrimaryURL:      fx.DefaultFrankfurterURL,
			FallbackURL:     fx.DefaultOpenERURL,
			Timeout:         10 * time.Second,
			CacheTTL:        fx.DefaultCacheTTL,
			BreakerTimeout:  30 * time.Second,
			BreakerFailures: 5,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.BaseCurrency != "" {
		code, err := currency.ParseCode(yamlCfg.BaseCurrency)
		if err != nil {
			return fmt.Errorf("base_currency: %w", err)
		}
		cfg.BaseCurrency = code
	}

	if len(yamlCfg.Currencies) > 0 {
		codes, err := parseCurrencies(strings.Join(yamlCfg.Currencies, ","))
		if err != nil {
			return fmt.Errorf("currencies: %w", err)
		}
		cfg.Currencies = codes
	}

	if yamlCfg.TolerancePolicy != "" {
		policy, err := allocator.ParsePolicy(yamlCfg.TolerancePolicy)
		if err != nil {
			return fmt.Errorf("tolerance_policy: %w", err)
		}
		cfg.TolerancePolicy = policy
	}

	if len(yamlCfg.Catalog) > 0 {
		cfg.Catalog = allocator.Catalog(yamlCfg.Catalog)
	}

	setDuration(&cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod)
	setDuration(&cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout)
	setDuration(&cfg.WriteTimeout, yamlCfg.WriteTimeout)
	setDuration(&cfg.IdleTimeout, yamlCfg.IdleTimeout)

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.FX.PrimaryURL != "" {
		cfg.FX.PrimaryURL = yamlCfg.FX.PrimaryURL
	}
	if yamlCfg.FX.FallbackURL != "" {
		cfg.FX.FallbackURL = yamlCfg.FX.FallbackURL
	}
	setDuration(&cfg.FX.Timeout, yamlCfg.FX.Timeout)
	setDuration(&cfg.FX.CacheTTL, yamlCfg.FX.CacheTTL)
	setDuration(&cfg.FX.BreakerTimeout, yamlCfg.FX.BreakerTimeout)
	if yamlCfg.FX.BreakerFailures > 0 {
		cfg.FX.BreakerFailures = yamlCfg.FX.BreakerFailures
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if base := strings.TrimSpace(os.Getenv("BASE_CURRENCY")); base != "" {
		code, err := currency.ParseCode(base)
		if err != nil {
			return fmt.Errorf("BASE_CURRENCY: %w", err)
		}
		cfg.BaseCurrency = code
	}

	if raw := strings.TrimSpace(os.Getenv("CURRENCIES")); raw != "" {
		codes, err := parseCurrencies(raw)
		if err == nil {
			cfg.Currencies = codes
		}
	}

	if raw := strings.TrimSpace(os.Getenv("TOLERANCE_POLICY")); raw != "" {
		policy, err := allocator.ParsePolicy(raw)
		if err != nil {
			return fmt.Errorf("TOLERANCE_POLICY: %w", err)
		}
		cfg.TolerancePolicy = policy
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if url := strings.TrimSpace(os.Getenv("FX_PRIMARY_URL")); url != "" {
		cfg.FX.PrimaryURL = url
	}
	if url := strings.TrimSpace(os.Getenv("FX_FALLBACK_URL")); url != "" {
		cfg.FX.FallbackURL = url
	}
	setDuration(&cfg.FX.Timeout, strings.TrimSpace(os.Getenv("FX_TIMEOUT")))
	setDuration(&cfg.FX.CacheTTL, strings.TrimSpace(os.Getenv("FX_CACHE_TTL")))

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.BaseCurrency != nil && *overrides.BaseCurrency != "" {
		code, err := currency.ParseCode(*overrides.BaseCurrency)
		if err != nil {
			return fmt.Errorf("parse base currency: %w", err)
		}
		cfg.BaseCurrency = code
	}

	if overrides.Currencies != nil && *overrides.Currencies != "" {
		codes, err := parseCurrencies(*overrides.Currencies)
		if err != nil {
			return fmt.Errorf("parse currencies: %w", err)
		}
		cfg.Currencies = codes
	}

	if overrides.TolerancePolicy != nil && *overrides.TolerancePolicy != "" {
		policy, err := allocator.ParsePolicy(*overrides.TolerancePolicy)
		if err != nil {
			return fmt.Errorf("parse tolerance policy: %w", err)
		}
		cfg.TolerancePolicy = policy
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.FXCacheTTL != nil && *overrides.FXCacheTTL > 0 {
		cfg.FX.CacheTTL = *overrides.FXCacheTTL
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if err := allocator.ValidateCatalog(cfg.Catalog); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if cfg.FX.PrimaryURL == "" {
		return fmt.Errorf("FX primary URL cannot be empty")
	}
	if cfg.FX.Timeout <= 0 {
		return fmt.Errorf("FX timeout must be positive")
	}
	return nil
}

// parseCurrencies parses a comma-separated list of currency codes, dropping duplicates.
func parseCurrencies(raw string) ([]currency.Code, error) {
	parts := strings.Split(raw, ",")
	codes := make([]currency.Code, 0, len(parts))
	seen := make(map[currency.Code]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := currency.ParseCode(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no currencies provided")
	}
	return codes, nil
}

func ensureBase(codes []currency.Code, base currency.Code) []currency.Code {
	for _, code := range codes {
		if code == base {
			return codes
		}
	}
	return append(codes, base)
}

func setDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		*dst = d
	}
}
