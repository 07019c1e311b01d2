package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
	"github.com/eugenenazirov/nuts-optimizer/internal/fx"
	"github.com/eugenenazirov/nuts-optimizer/internal/report"
	"github.com/eugenenazirov/nuts-optimizer/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the searcher, catalog storage, and exchange rates into HTTP handlers.
type Handler struct {
	searcher allocator.Searcher
	storage  storage.Storage
	rates    fx.Provider

	base          currency.Code
	currencies    []currency.Code
	defaultPolicy allocator.Policy
	logger        *zap.Logger

	clock func() time.Time

	mu               sync.RWMutex
	catalogUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithCurrencies sets the base currency and the currencies users may pick.
func WithCurrencies(base currency.Code, supported []currency.Code) HandlerOption {
	return func(h *Handler) {
		h.base = base
		h.currencies = slices.Clone(supported)
		if !slices.Contains(h.currencies, base) {
			h.currencies = append(h.currencies, base)
		}
	}
}

// WithDefaultPolicy sets the tolerance policy used when a request names none.
func WithDefaultPolicy(policy allocator.Policy) HandlerOption {
	return func(h *Handler) {
		h.defaultPolicy = policy
	}
}

// WithHandlerLogger attaches a logger for per-request diagnostics.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(searcher allocator.Searcher, store storage.Storage, rates fx.Provider, opts ...HandlerOption) *Handler {
	h := &Handler{
		searcher:      searcher,
		storage:       store,
		rates:         rates,
		base:          currency.DefaultBase,
		currencies:    currency.DefaultSupported(),
		defaultPolicy: allocator.PolicyWindow,
		logger:        zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.catalogUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	_ = r
	catalog, err := h.storage.GetCatalog()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := catalogResponse{
		Catalog:      catalog,
		BaseCurrency: h.base,
		UpdatedAt:    h.currentCatalogUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutCatalog(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Catalog) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid catalog", "catalog must contain packages")
		return
	}

	if err := h.storage.SetCatalog(req.Catalog); err != nil {
		if errors.Is(err, storage.ErrInvalidCatalog) {
			writeError(w, http.StatusBadRequest, "Invalid catalog", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markCatalogUpdated()

	catalog, err := h.storage.GetCatalog()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := catalogResponse{
		Catalog:      catalog,
		BaseCurrency: h.base,
		UpdatedAt:    h.currentCatalogUpdatedAt(),
		Message:      "Catalog updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, currenciesResponse{
		BaseCurrency:  h.base,
		Currencies:    h.currencies,
		DefaultPolicy: h.defaultPolicy.String(),
	})
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	code, ok := h.supportedCurrency(w, req.Currency)
	if !ok {
		return
	}

	policy := h.defaultPolicy
	if strings.TrimSpace(req.Policy) != "" {
		parsed, err := allocator.ParsePolicy(req.Policy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		policy = parsed
	}

	rate, err := h.rates.RateToBase(r.Context(), code)
	if err != nil {
		h.writeRateError(r.Context(), w, code, err)
		return
	}

	spec, err := currency.Normalize(req.Amount, req.Margin, rate)
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrInvalidBudget):
			writeError(w, http.StatusBadRequest, "Invalid request", "amount and margin must be non-negative numbers")
		default:
			writeError(w, http.StatusBadGateway, "Invalid exchange rate", err.Error())
		}
		return
	}

	catalog, err := h.storage.GetCatalog()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	start := time.Now()
	result, searchErr := h.searcher.Search(catalog, spec, policy)
	elapsed := time.Since(start)

	if searchErr != nil {
		switch {
		case errors.Is(searchErr, allocator.ErrInvalidBudget):
			writeError(w, http.StatusBadRequest, "Invalid request", searchErr.Error())
		case errors.Is(searchErr, allocator.ErrInvalidPolicy):
			writeError(w, http.StatusBadRequest, "Invalid request", searchErr.Error())
		default:
			writeInternalError(w, searchErr)
		}
		return
	}

	quote := report.Build(result, catalog, report.Input{
		Amount:   req.Amount,
		Margin:   req.Margin,
		Currency: code,
		Base:     h.base,
		Rate:     rate,
		Spec:     spec,
		Policy:   policy,
	})

	h.logger.Debug("allocation computed",
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("currency", string(code)),
		zap.Float64("budget_base", spec.Budget),
		zap.Float64("margin_base", spec.Margin),
		zap.String("policy", policy.String()),
		zap.Bool("found", quote.Found),
		zap.Int("total_yield", quote.TotalYield),
	)

	resp := optimizeResponse{
		Quote:             quote,
		Amount:            req.Amount,
		Margin:            req.Margin,
		Summary:           quote.Summary(),
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	code, ok := h.supportedCurrency(w, r.PathValue("currency"))
	if !ok {
		return
	}

	rate, err := h.rates.RateToBase(r.Context(), code)
	if err != nil {
		h.writeRateError(r.Context(), w, code, err)
		return
	}

	writeJSON(w, http.StatusOK, rateResponse{
		Currency:     code,
		BaseCurrency: h.base,
		Rate:         rate,
	})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "amount must be a non-negative number")
		return
	}

	targets := make([]currency.Code, 0, len(h.currencies))
	for _, code := range h.currencies {
		if code != h.base {
			targets = append(targets, code)
		}
	}

	rates, err := h.rates.RatesFromBase(r.Context(), targets...)
	if err != nil {
		h.writeRateError(r.Context(), w, h.base, err)
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Amount:       amount,
		BaseCurrency: h.base,
		Conversions:  report.Preview(amount, targets, rates),
	})
}

func (h *Handler) supportedCurrency(w http.ResponseWriter, raw string) (currency.Code, bool) {
	code, err := currency.ParseCode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid currency", err.Error())
		return "", false
	}
	if !slices.Contains(h.currencies, code) {
		writeError(w, http.StatusBadRequest, "Unsupported currency", "supported currencies: "+joinCodes(h.currencies))
		return "", false
	}
	return code, true
}

func (h *Handler) writeRateError(ctx context.Context, w http.ResponseWriter, code currency.Code, err error) {
	h.logger.Warn("exchange rate lookup failed",
		zap.String("request_id", requestIDFromContext(ctx)),
		zap.String("currency", string(code)),
		zap.Error(err),
	)
	if errors.Is(err, fx.ErrRateUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Exchange rate unavailable", err.Error(), "Please try again in a moment")
		return
	}
	writeInternalError(w, err)
}

func (h *Handler) currentCatalogUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalogUpdatedAt
}

func (h *Handler) markCatalogUpdated() {
	h.mu.Lock()
	h.catalogUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func joinCodes(codes []currency.Code) string {
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = string(code)
	}
	return strings.Join(parts, ", ")
}

type catalogRequest struct {
	Catalog allocator.Catalog `json:"catalog"`
}

type catalogResponse struct {
	Catalog      allocator.Catalog `json:"catalog"`
	BaseCurrency currency.Code     `json:"baseCurrency"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Message      string            `json:"message,omitempty"`
}

type currenciesResponse struct {
	BaseCurrency  currency.Code   `json:"baseCurrency"`
	Currencies    []currency.Code `json:"currencies"`
	DefaultPolicy string          `json:"defaultPolicy"`
}

type optimizeRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Margin   float64 `json:"margin"`
	Policy   string  `json:"policy"`
}

type optimizeResponse struct {
	report.Quote
	Amount            float64  `json:"amount"`
	Margin            float64  `json:"margin"`
	Summary           []string `json:"summary"`
	CalculationTimeMs int64    `json:"calculationTimeMs"`
}

type rateResponse struct {
	Currency     currency.Code `json:"currency"`
	BaseCurrency currency.Code `json:"baseCurrency"`
	Rate         float64       `json:"rate"`
}

type previewResponse struct {
	Amount       float64             `json:"amount"`
	BaseCurrency currency.Code       `json:"baseCurrency"`
	Conversions  []report.Conversion `json:"conversions"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
