// Package search defines the query-side value types: search parameters,
// pagination and the typed search result with its facet buckets.
package search

import (
	"fmt"

	"github.com/dealspot-cloud/dealdex/internal/domain"
)

// Sort keys accepted by Params.SortBy.
const (
	SortByCreatedAt = "createdAt"
	SortByPrice     = "price"
)

// Sort orders accepted by Params.Order.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// PriceRange is a half-open currency interval [From, To). A nil To means
// unbounded above.
type PriceRange struct {
	From float64
	To   *float64
}

// Params are the deal search parameters. Zero-length filter slices mean the
// dimension is unfiltered.
type Params struct {
	Query       string
	Categories  []string
	Stores      []string
	Prices      []PriceRange
	HideExpired bool
	SortBy      string
	Order       string
}

// Validate checks sort keys, order and price ranges.
func (p *Params) Validate() error {
	switch p.SortBy {
	case "", SortByCreatedAt, SortByPrice:
	default:
		return fmt.Errorf("unknown sort key %q: %w", p.SortBy, domain.ErrValidation)
	}
	switch p.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("unknown sort order %q: %w", p.Order, domain.ErrValidation)
	}
	for _, pr := range p.Prices {
		if pr.From < 0 {
			return fmt.Errorf("price range lower bound must be >= 0: %w", domain.ErrValidation)
		}
		if pr.To != nil && *pr.To <= pr.From {
			return fmt.Errorf("price range upper bound must exceed lower bound: %w", domain.ErrValidation)
		}
	}
	return nil
}

// HasFilters reports whether any facet filter is selected.
func (p *Params) HasFilters() bool {
	return len(p.Categories) > 0 || len(p.Stores) > 0 || len(p.Prices) > 0
}

// Page is standard page-number/page-size pagination.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize(defaultSize, maxSize int) Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

// Offset returns the from-offset for the search index request.
func (p Page) Offset() int { return p.Number * p.Size }
