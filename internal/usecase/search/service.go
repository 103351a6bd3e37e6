// Package search validates query parameters and delegates faceted searches
// and suggestions to the search index.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
)

// Service is the search use case.
type Service struct {
	searcher        Searcher
	defaultPageSize int
	maxPageSize     int
}

// New creates a search service.
func New(searcher Searcher) *Service {
	return &Service{
		searcher:        searcher,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Search runs a faceted search over the deal index.
func (s *Service) Search(ctx context.Context, params *domsearch.Params, page domsearch.Page) (*domsearch.Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	res, err := s.searcher.Search(ctx, params, page.Normalize(s.defaultPageSize, s.maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchBackend, err)
	}
	return res, nil
}

// Suggest returns title completions for a typed prefix.
func (s *Service) Suggest(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	titles, err := s.searcher.Suggest(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchBackend, err)
	}
	return titles, nil
}
