package search

import (
	"context"

	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
)

// Searcher executes faceted searches and prefix suggestions against the
// search index.
type Searcher interface {
	Search(ctx context.Context, params *domsearch.Params, page domsearch.Page) (*domsearch.Result, error)
	Suggest(ctx context.Context, prefix string) ([]string, error)
}
