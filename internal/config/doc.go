// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Besides the HTTP server settings it carries
// the package catalog, the base and user currencies, the default tolerance
// policy, and the exchange-rate source endpoints.
package config
