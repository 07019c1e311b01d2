package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
	"github.com/eugenenazirov/nuts-optimizer/internal/config"
	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
	"github.com/eugenenazirov/nuts-optimizer/internal/fx"
	"github.com/eugenenazirov/nuts-optimizer/internal/report"
	"github.com/eugenenazirov/nuts-optimizer/internal/storage"
)

type quoteFlags struct {
	Amount   *float64
	Currency *string
	Margin   *float64
	Policy   *string
}

func (f quoteFlags) values() quoteRequest {
	return quoteRequest{
		Amount:   *f.Amount,
		Currency: *f.Currency,
		Margin:   *f.Margin,
		Policy:   *f.Policy,
	}
}

type quoteRequest struct {
	Amount   float64
	Currency string
	Margin   float64
	Policy   string
}

// runQuote resolves the exchange rate, searches the configured catalog, and
// writes the summary lines to out. The catalog passes through the same
// storage normalisation the HTTP server applies.
func runQuote(ctx context.Context, cfg config.Config, rates fx.Provider, req quoteRequest, out io.Writer) error {
	store := storage.NewMemoryStorage()
	if err := store.SetCatalog(cfg.Catalog); err != nil {
		return fmt.Errorf("apply catalog: %w", err)
	}
	catalog, err := store.GetCatalog()
	if err != nil {
		return err
	}

	code, err := currency.ParseCode(req.Currency)
	if err != nil {
		return err
	}

	policy := cfg.TolerancePolicy
	if strings.TrimSpace(req.Policy) != "" {
		if policy, err = allocator.ParsePolicy(req.Policy); err != nil {
			return err
		}
	}

	rate, err := rates.RateToBase(ctx, code)
	if err != nil {
		return fmt.Errorf("resolve %s rate: %w", code, err)
	}

	spec, err := currency.Normalize(req.Amount, req.Margin, rate)
	if err != nil {
		return err
	}

	result, err := allocator.New().Search(catalog, spec, policy)
	if err != nil {
		return err
	}

	quote := report.Build(result, catalog, report.Input{
		Amount:   req.Amount,
		Margin:   req.Margin,
		Currency: code,
		Base:     cfg.BaseCurrency,
		Rate:     rate,
		Spec:     spec,
		Policy:   policy,
	})
	for _, line := range quote.Summary() {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
