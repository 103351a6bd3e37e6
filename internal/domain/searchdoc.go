package domain

import "time"

// Facet names used by the search document projection and the query builder.
const (
	FacetCategory = "category"
	FacetStore    = "store"
	FacetTag      = "tag"
	FacetPrice    = "price"
)

// StringFacet is a categorical (name, value) dimension stored as a nested
// sub-document in the search index.
type StringFacet struct {
	Name  string `json:"facetName"`
	Value string `json:"facetValue"`
}

// NumberFacet is a numeric (name, value) dimension stored as a nested
// sub-document in the search index.
type NumberFacet struct {
	Name  string  `json:"facetName"`
	Value float64 `json:"facetValue"`
}

// SearchDocument is the denormalized projection of a Deal held in the search
// index. It is owned exclusively by the indexing coordinator: created or
// overwritten on every deal mutation, deleted with the deal, never standalone.
type SearchDocument struct {
	ID           string        `json:"-"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Status       Status        `json:"status"`
	StringFacets []StringFacet `json:"stringFacets"`
	NumberFacets []NumberFacet `json:"numberFacets"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// ProjectDeal maps a deal to its search document. The facets are a pure
// function of the deal's category, store, tags and price fields; there is no
// other way to mutate them.
func ProjectDeal(d *Deal) SearchDocument {
	stringFacets := make([]StringFacet, 0, 2+len(d.Tags))
	stringFacets = append(stringFacets,
		StringFacet{Name: FacetCategory, Value: d.Category},
		StringFacet{Name: FacetStore, Value: d.Store},
	)
	for _, tag := range d.Tags {
		stringFacets = append(stringFacets, StringFacet{Name: FacetTag, Value: tag})
	}

	return SearchDocument{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Status:       d.Status,
		StringFacets: stringFacets,
		NumberFacets: []NumberFacet{{Name: FacetPrice, Value: d.Price}},
		CreatedAt:    d.CreatedAt,
	}
}
