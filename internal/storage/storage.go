package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/eugenenazirov/nuts-optimizer/internal/allocator"
)

var (
	// ErrInvalidCatalog indicates the provided catalog violates validation rules.
	ErrInvalidCatalog = errors.New("catalog must hold 3 packages whose prices and yields both increase")
)

// Storage provides access to the package catalog used by the searcher.
type Storage interface {
	GetCatalog() (allocator.Catalog, error)
	SetCatalog(catalog allocator.Catalog) error
}

// MemoryStorage keeps the catalog in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	catalog allocator.Catalog
}

// NewMemoryStorage initialises storage with the default catalog.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		catalog: allocator.DefaultCatalog(),
	}
}

// GetCatalog returns a defensive copy of the current catalog.
func (s *MemoryStorage) GetCatalog() (allocator.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalog.Clone(), nil
}

// SetCatalog validates, orders by price, and stores the provided catalog.
func (s *MemoryStorage) SetCatalog(catalog allocator.Catalog) error {
	normalized, err := NormalizeCatalog(catalog)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.catalog = normalized
	s.mu.Unlock()

	return nil
}

// NormalizeCatalog returns a copy of catalog ordered by price. Prices and yields
// must both increase strictly from one package to the next.
func NormalizeCatalog(catalog allocator.Catalog) (allocator.Catalog, error) {
	if err := allocator.ValidateCatalog(catalog); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	out := catalog.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Price < out[j].Price
	})

	for i := 1; i < len(out); i++ {
		if out[i].Price <= out[i-1].Price || out[i].Yield <= out[i-1].Yield {
			return nil, fmt.Errorf("%w: package %d (%g, %d) does not exceed package %d (%g, %d)",
				ErrInvalidCatalog, i, out[i].Price, out[i].Yield, i-1, out[i-1].Price, out[i-1].Yield)
		}
	}

	return out, nil
}
