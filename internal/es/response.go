package es

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// SearchResponse is a parsed search response: ranked hits plus the raw
// aggregation tree keyed by aggregation name.
type SearchResponse struct {
	Total        int64
	Hits         []HitDoc
	Aggregations map[string]json.RawMessage
}

// HitDoc is a single hit with its raw source body.
type HitDoc struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

type rawSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// ParseSearchResponse decodes a search response body.
func ParseSearchResponse(r io.Reader) (*SearchResponse, error) {
	var raw rawSearchResponse
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]HitDoc, len(raw.Hits.Hits))
	for i, h := range raw.Hits.Hits {
		hits[i] = HitDoc{ID: h.ID, Score: h.Score, Source: h.Source}
	}

	return &SearchResponse{
		Total:        raw.Hits.Total.Value,
		Hits:         hits,
		Aggregations: raw.Aggregations,
	}, nil
}

// FacetGroupAgg is the response shape of a filter-scoped facet aggregation:
// the outer doc_count plus one nested sub-aggregation per facet group.
type FacetGroupAgg struct {
	DocCount     int64           `json:"doc_count"`
	StringFacets *NestedFacetAgg `json:"stringFacets"`
	NumberFacets *NestedFacetAgg `json:"numberFacets"`
}

// NestedFacetAgg is the nested facet-array layer. AggSpecial is present when
// a facet-name pin filter was applied before bucketing.
type NestedFacetAgg struct {
	DocCount   int64           `json:"doc_count"`
	AggSpecial *NestedFacetAgg `json:"aggSpecial"`
	Names      *BucketsAgg     `json:"names"`
}

// BucketsAgg is a bucketed aggregation result.
type BucketsAgg struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket is a single aggregation bucket: terms buckets carry Key, range
// buckets carry From/To. Values holds the per-name sub-buckets.
type Bucket struct {
	Key      json.RawMessage `json:"key"`
	From     *float64        `json:"from"`
	To       *float64        `json:"to"`
	DocCount int64           `json:"doc_count"`
	Values   *BucketsAgg     `json:"values"`
}

// KeyString renders the bucket key as a string, whether the index returned it
// as a string or a number.
func (b Bucket) KeyString() string {
	if len(b.Key) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Key, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(b.Key, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(b.Key)
}

// DecodeFacetGroup decodes one named aggregation subtree.
func DecodeFacetGroup(raw json.RawMessage) (*FacetGroupAgg, error) {
	var agg FacetGroupAgg
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("decode facet aggregation: %w", err)
	}
	return &agg, nil
}
