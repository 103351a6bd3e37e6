package search

// Hit is a single ranked search hit.
type Hit struct {
	ID     string
	Score  float64
	Title  string
	Source []byte // raw document body as stored in the index
}

// ValueBucket is one facetValue bucket inside a facet aggregation.
type ValueBucket struct {
	Value string
	Count int64
}

// RangeBucket is one price-range bucket. To is nil for the unbounded top
// range.
type RangeBucket struct {
	From  float64
	To    *float64
	Count int64
}

// FacetBuckets groups value buckets by facet name.
type FacetBuckets map[string][]ValueBucket

// Aggregations is the decoded facet aggregation tree of a search response.
// Each member reflects the sub-population its aggregation was scoped to:
// AllFilters is scoped to the full active filter set, while Categories,
// Stores and PriceRanges each exclude their own facet's filter.
type Aggregations struct {
	AllStringFacets FacetBuckets
	AllNumberFacets FacetBuckets
	Categories      []ValueBucket
	Stores          []ValueBucket
	PriceRanges     []RangeBucket
}

// Result is a full search response: ranked hits plus facet buckets.
type Result struct {
	Hits  []Hit
	Total int64
	Aggs  Aggregations
}
