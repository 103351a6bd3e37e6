// Package es is the Elasticsearch wire layer: immutable query, aggregation
// and sort nodes that marshal to the ES JSON DSL, a thin client over the
// official transport, and response parsing.
package es

import "encoding/json"

// Query is a node of the ES query DSL tree. Every concrete node marshals to
// its wire representation, so a composed tree serializes directly into a
// request body.
type Query interface {
	json.Marshaler
}

// MatchAll matches every document.
type MatchAll struct{}

// MarshalJSON implements json.Marshaler.
func (MatchAll) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"match_all": struct{}{}})
}

// Term is an exact match on a keyword field.
type Term struct {
	Field string
	Value any
}

// NewTerm creates a term query.
func NewTerm(field string, value any) Term {
	return Term{Field: field, Value: value}
}

// MarshalJSON implements json.Marshaler.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"term": map[string]any{
			t.Field: map[string]any{"value": t.Value},
		},
	})
}

// Range is a numeric range query. GTE is the inclusive lower bound; LT, when
// set, is the exclusive upper bound.
type Range struct {
	Field string
	GTE   *float64
	LT    *float64
}

// NewRange creates a half-open range query [from, to). A nil to leaves the
// range unbounded above.
func NewRange(field string, from float64, to *float64) Range {
	return Range{Field: field, GTE: &from, LT: to}
}

// MarshalJSON implements json.Marshaler.
func (r Range) MarshalJSON() ([]byte, error) {
	bounds := make(map[string]any, 2)
	if r.GTE != nil {
		bounds["gte"] = *r.GTE
	}
	if r.LT != nil {
		bounds["lt"] = *r.LT
	}
	return json.Marshal(map[string]any{
		"range": map[string]any{r.Field: bounds},
	})
}

// MultiMatch is a relevance query across several text fields.
type MultiMatch struct {
	Query  string
	Fields []string
	Type   string // optional, e.g. "bool_prefix"
}

// NewMultiMatch creates a multi_match query.
func NewMultiMatch(query string, fields ...string) MultiMatch {
	return MultiMatch{Query: query, Fields: fields}
}

// MarshalJSON implements json.Marshaler.
func (m MultiMatch) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"query":  m.Query,
		"fields": m.Fields,
	}
	if m.Type != "" {
		body["type"] = m.Type
	}
	return json.Marshal(map[string]any{"multi_match": body})
}

// Bool combines sub-queries with boolean semantics. Empty clause groups are
// omitted from the wire form.
type Bool struct {
	Must    []Query
	Filter  []Query
	Should  []Query
	MustNot []Query
}

// MarshalJSON implements json.Marshaler.
func (b Bool) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, 4)
	if len(b.Must) > 0 {
		body["must"] = b.Must
	}
	if len(b.Filter) > 0 {
		body["filter"] = b.Filter
	}
	if len(b.Should) > 0 {
		body["should"] = b.Should
	}
	if len(b.MustNot) > 0 {
		body["must_not"] = b.MustNot
	}
	return json.Marshal(map[string]any{"bool": body})
}

// Nested scopes a query to a single nested sub-document, so that clauses
// inside it match fields of the same nested element.
type Nested struct {
	Path      string
	Query     Query
	ScoreMode string
}

// NewNested creates a nested query with avg score mode.
func NewNested(path string, query Query) Nested {
	return Nested{Path: path, Query: query, ScoreMode: "avg"}
}

// MarshalJSON implements json.Marshaler.
func (n Nested) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"path":  n.Path,
		"query": n.Query,
	}
	if n.ScoreMode != "" {
		body["score_mode"] = n.ScoreMode
	}
	return json.Marshal(map[string]any{"nested": body})
}
