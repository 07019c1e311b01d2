package allocator

import (
	"fmt"
	"math"
)

const (
	// largestSpread is how far the count of the most expensive package may
	// move away from budget/price in either direction.
	largestSpread = 5
	// smallerCountLimit bounds the counts of the two cheaper packages to [0, 20).
	smallerCountLimit = 20
	// maxLargestCount keeps budget/price inside the range of int counts.
	maxLargestCount = math.MaxInt32
)

// MaxYield is the largest per-package yield a catalog may carry. Together with
// maxLargestCount it keeps every candidate's total yield within int64.
const MaxYield = math.MaxInt32

type windowSearcher struct{}

// New creates a Searcher that enumerates a fixed window of purchase counts
// anchored on the most expensive package.
//
// The window is a heuristic: the count of the largest package is searched only
// within ±5 of budget/price and the two cheaper packages only within 0..19.
// A combination outside that window is never considered, even if it would
// yield more.
func New() Searcher {
	return &windowSearcher{}
}

func (s *windowSearcher) Search(catalog Catalog, spec BudgetSpec, policy Policy) (Result, error) {
	if err := ValidateCatalog(catalog); err != nil {
		return Result{}, err
	}
	if err := validateBudget(spec); err != nil {
		return Result{}, err
	}
	if policy != PolicyWindow && policy != PolicyCeilingOnly {
		return Result{}, fmt.Errorf("%w: got %s", ErrInvalidPolicy, policy)
	}

	small, medium, large := catalog[0], catalog[1], catalog[2]

	ratio := math.Floor(spec.Budget / large.Price)
	if ratio > maxLargestCount {
		return Result{}, fmt.Errorf("%w: budget %g exceeds searchable range", ErrInvalidBudget, spec.Budget)
	}
	maxC := int(ratio)

	var (
		best  [CatalogSize]int
		found bool
		top   candidateValue
	)

	for c := maxC - largestSpread; c <= maxC+largestSpread; c++ {
		if c < 0 {
			continue
		}
		for b := 0; b < smallerCountLimit; b++ {
			for a := 0; a < smallerCountLimit; a++ {
				if a == 0 && b == 0 && c == 0 {
					continue
				}

				cost := float64(a)*small.Price + float64(b)*medium.Price + float64(c)*large.Price
				if !policy.Feasible(cost, spec) {
					continue
				}

				yield := a*small.Yield + b*medium.Yield + c*large.Yield
				if found && yield <= top.yield {
					continue
				}

				best = [CatalogSize]int{a, b, c}
				top = candidateValue{cost: cost, yield: yield}
				found = true
			}
		}
	}

	if !found {
		return Result{}, nil
	}

	return Result{
		Best: &Candidate{
			Counts: best[:],
			Cost:   top.cost,
			Yield:  top.yield,
		},
	}, nil
}

type candidateValue struct {
	cost  float64
	yield int
}

// ValidateCatalog checks that the catalog can be searched.
func ValidateCatalog(catalog Catalog) error {
	if len(catalog) != CatalogSize {
		return fmt.Errorf("%w: got %d packages", ErrInvalidCatalog, len(catalog))
	}
	for i, pkg := range catalog {
		if math.IsNaN(pkg.Price) || math.IsInf(pkg.Price, 0) || pkg.Price <= 0 {
			return fmt.Errorf("%w: package %d has price %g", ErrInvalidCatalog, i, pkg.Price)
		}
		if pkg.Yield <= 0 || pkg.Yield > MaxYield {
			return fmt.Errorf("%w: package %d has yield %d", ErrInvalidCatalog, i, pkg.Yield)
		}
	}
	return nil
}

func validateBudget(spec BudgetSpec) error {
	for _, v := range []float64{spec.Budget, spec.Margin} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: budget=%g margin=%g", ErrInvalidBudget, spec.Budget, spec.Margin)
		}
	}
	return nil
}
