package allocator

import "errors"

var (
	// ErrInvalidCatalog is returned when the catalog does not hold exactly three packages with positive prices and yields.
	ErrInvalidCatalog = errors.New("catalog must contain exactly 3 packages with positive prices and yields")
	// ErrInvalidBudget is returned when the budget or margin is negative, not finite, or too large to search.
	ErrInvalidBudget = errors.New("budget and margin must be finite non-negative numbers")
	// ErrInvalidPolicy is returned when a tolerance policy name is not recognised.
	ErrInvalidPolicy = errors.New("tolerance policy must be one of: window, ceiling")
)
