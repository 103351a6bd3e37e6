package es

import "encoding/json"

// Agg is a node of the ES aggregation DSL tree.
type Agg interface {
	json.Marshaler
}

// FilterAgg scopes its sub-aggregations to documents matching Filter.
type FilterAgg struct {
	Filter Query
	Aggs   map[string]Agg
}

// MarshalJSON implements json.Marshaler.
func (a FilterAgg) MarshalJSON() ([]byte, error) {
	body := map[string]any{"filter": a.Filter}
	if len(a.Aggs) > 0 {
		body["aggs"] = a.Aggs
	}
	return json.Marshal(body)
}

// NestedAgg unwraps a nested sub-document array before bucketing.
type NestedAgg struct {
	Path string
	Aggs map[string]Agg
}

// MarshalJSON implements json.Marshaler.
func (a NestedAgg) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"nested": map[string]any{"path": a.Path},
	}
	if len(a.Aggs) > 0 {
		body["aggs"] = a.Aggs
	}
	return json.Marshal(body)
}

// TermsAgg buckets by the distinct values of a keyword field.
type TermsAgg struct {
	Field string
	Aggs  map[string]Agg
}

// MarshalJSON implements json.Marshaler.
func (a TermsAgg) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"terms": map[string]any{"field": a.Field},
	}
	if len(a.Aggs) > 0 {
		body["aggs"] = a.Aggs
	}
	return json.Marshal(body)
}

// AggRange is one bucket boundary of a RangeAgg. From is inclusive, To is
// exclusive; a nil To leaves the top bucket unbounded.
type AggRange struct {
	From float64
	To   *float64
}

// RangeAgg buckets a numeric field into fixed ranges.
type RangeAgg struct {
	Field  string
	Ranges []AggRange
}

// MarshalJSON implements json.Marshaler.
func (a RangeAgg) MarshalJSON() ([]byte, error) {
	ranges := make([]map[string]any, len(a.Ranges))
	for i, r := range a.Ranges {
		body := map[string]any{"from": r.From}
		if r.To != nil {
			body["to"] = *r.To
		}
		ranges[i] = body
	}
	return json.Marshal(map[string]any{
		"range": map[string]any{
			"field":  a.Field,
			"ranges": ranges,
		},
	})
}
