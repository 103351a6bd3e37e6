package es

import "encoding/json"

// Sort is a single sort clause.
type Sort interface {
	json.Marshaler
}

// FieldSort sorts by a top-level field.
type FieldSort struct {
	Field string
	Order string
}

// MarshalJSON implements json.Marshaler.
func (s FieldSort) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		s.Field: map[string]any{"order": s.Order},
	})
}

// NestedFieldSort sorts by a field inside a nested sub-document, restricted
// by a filter to a single nested element.
type NestedFieldSort struct {
	Field  string
	Order  string
	Path   string
	Filter Query
}

// MarshalJSON implements json.Marshaler.
func (s NestedFieldSort) MarshalJSON() ([]byte, error) {
	nested := map[string]any{"path": s.Path}
	if s.Filter != nil {
		nested["filter"] = s.Filter
	}
	return json.Marshal(map[string]any{
		s.Field: map[string]any{
			"order":  s.Order,
			"nested": nested,
		},
	})
}

// SearchRequest is a full search request body: relevance query, filter-scoped
// aggregations, sort clauses and a post filter applied to the hit list after
// aggregations are computed.
type SearchRequest struct {
	From           int
	Size           int
	Query          Query
	Aggs           map[string]Agg
	PostFilter     Query
	Sort           []Sort
	SourceIncludes []string
}

// MarshalJSON implements json.Marshaler.
func (r SearchRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"from": r.From,
		"size": r.Size,
	}
	if r.Query != nil {
		body["query"] = r.Query
	}
	if len(r.Aggs) > 0 {
		body["aggs"] = r.Aggs
	}
	if r.PostFilter != nil {
		body["post_filter"] = r.PostFilter
	}
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	if len(r.SourceIncludes) > 0 {
		body["_source"] = map[string]any{"includes": r.SourceIncludes}
	}
	return json.Marshal(body)
}
