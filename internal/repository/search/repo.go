package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
	"github.com/dealspot-cloud/dealdex/internal/es"
)

// DefaultIndex is the search index holding deal documents.
const DefaultIndex = "deals"

// client is the consumer interface for the index transport (ISP).
type client interface {
	IndexDocument(ctx context.Context, index, id string, doc any) error
	DeleteDocument(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, req es.SearchRequest) (*es.SearchResponse, error)
}

// Repo implements the search-document repository over Elasticsearch.
type Repo struct {
	client client
	index  string
}

// New creates a search repository against the default index.
func New(c client) *Repo {
	return &Repo{client: c, index: DefaultIndex}
}

// WithIndex overrides the index name.
func (r *Repo) WithIndex(index string) *Repo {
	r.index = index
	return r
}

// Index upserts a deal's search document.
func (r *Repo) Index(ctx context.Context, doc domain.SearchDocument) error {
	if err := r.client.IndexDocument(ctx, r.index, doc.ID, doc); err != nil {
		return fmt.Errorf("index search document %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a deal's search document. A document already absent from
// the index is not an error: the desired state holds.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.client.DeleteDocument(ctx, r.index, id); err != nil {
		var esErr *es.Error
		if errors.As(err, &esErr) && errors.Is(esErr.Err, es.ErrDocMissing) {
			return nil
		}
		return fmt.Errorf("delete search document %s: %w", id, err)
	}
	return nil
}

// Search executes a faceted deal search and decodes hits plus the four
// aggregation groups.
func (r *Repo) Search(
	ctx context.Context, params *domsearch.Params, page domsearch.Page,
) (*domsearch.Result, error) {
	resp, err := r.client.Search(ctx, r.index, buildSearchRequest(params, page))
	if err != nil {
		return nil, fmt.Errorf("search deals: %w", err)
	}

	result := &domsearch.Result{
		Hits:  parseHits(resp.Hits),
		Total: resp.Total,
	}
	if err := decodeAggregations(resp.Aggregations, &result.Aggs); err != nil {
		return nil, fmt.Errorf("search deals: %w", err)
	}
	return result, nil
}

// Suggest returns up to five deal titles matching the prefix.
func (r *Repo) Suggest(ctx context.Context, prefix string) ([]string, error) {
	resp, err := r.client.Search(ctx, r.index, buildSuggestRequest(prefix))
	if err != nil {
		return nil, fmt.Errorf("suggest deals: %w", err)
	}

	titles := make([]string, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		var src struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(h.Source, &src); err != nil {
			continue
		}
		if src.Title != "" {
			titles = append(titles, src.Title)
		}
	}
	return titles, nil
}

func parseHits(hits []es.HitDoc) []domsearch.Hit {
	out := make([]domsearch.Hit, len(hits))
	for i, h := range hits {
		var src struct {
			Title string `json:"title"`
		}
		_ = json.Unmarshal(h.Source, &src)
		out[i] = domsearch.Hit{
			ID:     h.ID,
			Score:  h.Score,
			Title:  src.Title,
			Source: h.Source,
		}
	}
	return out
}

// decodeAggregations maps the named aggregation subtrees onto their domain
// bucket collections.
func decodeAggregations(raw map[string]json.RawMessage, aggs *domsearch.Aggregations) error {
	if msg, ok := raw[aggAllFilters]; ok {
		group, err := es.DecodeFacetGroup(msg)
		if err != nil {
			return fmt.Errorf("%s: %w", aggAllFilters, err)
		}
		aggs.AllStringFacets = facetBuckets(group.StringFacets)
		aggs.AllNumberFacets = facetBuckets(group.NumberFacets)
	}

	if msg, ok := raw[aggCategory]; ok {
		group, err := es.DecodeFacetGroup(msg)
		if err != nil {
			return fmt.Errorf("%s: %w", aggCategory, err)
		}
		aggs.Categories = pinnedValueBuckets(group.StringFacets, domain.FacetCategory)
	}

	if msg, ok := raw[aggStore]; ok {
		group, err := es.DecodeFacetGroup(msg)
		if err != nil {
			return fmt.Errorf("%s: %w", aggStore, err)
		}
		aggs.Stores = pinnedValueBuckets(group.StringFacets, domain.FacetStore)
	}

	if msg, ok := raw[aggPrice]; ok {
		group, err := es.DecodeFacetGroup(msg)
		if err != nil {
			return fmt.Errorf("%s: %w", aggPrice, err)
		}
		aggs.PriceRanges = rangeBuckets(group.NumberFacets, domain.FacetPrice)
	}

	return nil
}

// facetBuckets flattens a names->values aggregation into per-facet buckets.
func facetBuckets(agg *es.NestedFacetAgg) domsearch.FacetBuckets {
	if agg == nil || agg.Names == nil {
		return nil
	}
	out := make(domsearch.FacetBuckets, len(agg.Names.Buckets))
	for _, name := range agg.Names.Buckets {
		if name.Values == nil {
			continue
		}
		values := make([]domsearch.ValueBucket, 0, len(name.Values.Buckets))
		for _, v := range name.Values.Buckets {
			values = append(values, domsearch.ValueBucket{
				Value: v.KeyString(),
				Count: v.DocCount,
			})
		}
		out[name.KeyString()] = values
	}
	return out
}

// pinnedValueBuckets extracts the value buckets of one facet name from an
// aggSpecial-pinned subtree.
func pinnedValueBuckets(agg *es.NestedFacetAgg, facetName string) []domsearch.ValueBucket {
	if agg == nil || agg.AggSpecial == nil || agg.AggSpecial.Names == nil {
		return nil
	}
	for _, name := range agg.AggSpecial.Names.Buckets {
		if name.KeyString() != facetName || name.Values == nil {
			continue
		}
		values := make([]domsearch.ValueBucket, 0, len(name.Values.Buckets))
		for _, v := range name.Values.Buckets {
			values = append(values, domsearch.ValueBucket{
				Value: v.KeyString(),
				Count: v.DocCount,
			})
		}
		return values
	}
	return nil
}

// rangeBuckets extracts the price range buckets.
func rangeBuckets(agg *es.NestedFacetAgg, facetName string) []domsearch.RangeBucket {
	if agg == nil || agg.AggSpecial == nil || agg.AggSpecial.Names == nil {
		return nil
	}
	for _, name := range agg.AggSpecial.Names.Buckets {
		if name.KeyString() != facetName || name.Values == nil {
			continue
		}
		out := make([]domsearch.RangeBucket, 0, len(name.Values.Buckets))
		for _, v := range name.Values.Buckets {
			var from float64
			if v.From != nil {
				from = *v.From
			}
			out = append(out, domsearch.RangeBucket{
				From:  from,
				To:    v.To,
				Count: v.DocCount,
			})
		}
		return out
	}
	return nil
}
