package allocator

// CatalogSize is the number of package definitions the search understands.
const CatalogSize = 3

// PackageDefinition is a purchasable unit: a fixed base-currency price and the
// quantity granted per purchase.
type PackageDefinition struct {
	Price float64 `json:"price" yaml:"price"`
	Yield int     `json:"yield" yaml:"yield"`
}

// Catalog is ordered from the cheapest to the most expensive package.
type Catalog []PackageDefinition

var defaultCatalog = Catalog{
	{Price: 205, Yield: 6000},
	{Price: 409, Yield: 12800},
	{Price: 1020, Yield: 34500},
}

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() Catalog {
	return defaultCatalog.Clone()
}

// Clone returns an independent copy of the catalog.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}

// BudgetSpec holds a budget and its spending tolerance, both in base currency.
type BudgetSpec struct {
	Budget float64
	Margin float64
}

// Candidate is one choice of purchase counts, indexed like the catalog.
// Cost and Yield are exact sums; they are never rounded.
type Candidate struct {
	Counts []int
	Cost   float64
	Yield  int
}

// Result is the outcome of a single search. A nil Best means that no
// combination inside the search window satisfies the tolerance policy.
type Result struct {
	Best *Candidate
}

// Found reports whether the search produced a candidate.
func (r Result) Found() bool {
	return r.Best != nil
}

// Searcher describes the behaviour required from an allocation search.
type Searcher interface {
	Search(catalog Catalog, spec BudgetSpec, policy Policy) (Result, error)
}
