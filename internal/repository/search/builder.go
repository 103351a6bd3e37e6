// Package search implements the search-index repository: it translates deal
// search parameters into the index's query and aggregation wire format and
// parses the response back into domain results.
package search

import (
	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
	"github.com/dealspot-cloud/dealdex/internal/es"
)

// Aggregation names in the search response tree.
const (
	aggAllFilters = "aggAllFilters"
	aggCategory   = "aggCategory"
	aggPrice      = "aggPrice"
	aggStore      = "aggStore"
)

const (
	stringFacetGroup = "stringFacets"
	numberFacetGroup = "numberFacets"
)

const maxSuggestions = 5

// priceAggBounds are the fixed, monotonically increasing price bucket
// boundaries. The last bucket is unbounded above.
var priceAggBounds = []float64{0, 1, 5, 10, 20, 50, 100, 250, 500, 1000, 1500, 2000}

// buildSearchRequest translates search parameters into the full request body:
// relevance query, the four filter-scoped facet aggregations, sort clauses
// and the post filter.
func buildSearchRequest(p *domsearch.Params, page domsearch.Page) es.SearchRequest {
	req := es.SearchRequest{
		From: page.Offset(),
		Size: page.Size,
		Aggs: map[string]es.Agg{
			aggAllFilters: buildAllFiltersAgg(p),
			aggCategory:   buildStringFacetAgg(p, domain.FacetCategory),
			aggPrice:      buildPriceAgg(p),
			aggStore:      buildStringFacetAgg(p, domain.FacetStore),
		},
		Sort: buildSort(p),
	}

	if p.HasFilters() {
		req.PostFilter = filtersExcluding(p, "")
	}
	if q := buildQuery(p); q != nil {
		req.Query = q
	}
	return req
}

// buildQuery assembles the relevance clause. Without query text and with
// expired deals visible there is no query at all: the index ranks by the sort
// key alone.
func buildQuery(p *domsearch.Params) es.Query {
	var b es.Bool
	if p.Query != "" {
		b.Must = append(b.Must, es.NewMultiMatch(p.Query, "title", "description"))
	}
	if p.HideExpired {
		b.Filter = append(b.Filter, es.NewTerm("status", string(domain.StatusActive)))
	}
	if len(b.Must) == 0 && len(b.Filter) == 0 {
		return nil
	}
	return b
}

// buildSuggestRequest builds the title autocomplete request: a bool_prefix
// multi match over the title shingle fields, source-filtered to the title.
func buildSuggestRequest(prefix string) es.SearchRequest {
	return es.SearchRequest{
		Size: maxSuggestions,
		Query: es.MultiMatch{
			Query:  prefix,
			Fields: []string{"title", "title._2gram", "title._3gram"},
			Type:   "bool_prefix",
		},
		SourceIncludes: []string{"title"},
	}
}

// stringFacetFilter binds facetName and facetValue inside the same nested
// element, so a value is never matched against another facet's name.
func stringFacetFilter(facetName, facetValue string) es.Nested {
	return es.NewNested(stringFacetGroup, es.Bool{
		Must: []es.Query{
			es.NewTerm(stringFacetGroup+".facetName", facetName),
			es.NewTerm(stringFacetGroup+".facetValue", facetValue),
		},
	})
}

// numberFacetFilter is the numeric analogue: the range is half-open, with a
// nil upper bound meaning unbounded.
func numberFacetFilter(facetName string, from float64, to *float64) es.Nested {
	return es.NewNested(numberFacetGroup, es.Bool{
		Must: []es.Query{
			es.NewTerm(numberFacetGroup+".facetName", facetName),
			es.NewRange(numberFacetGroup+".facetValue", from, to),
		},
	})
}

// anyOf ORs the queries of one facet dimension. A single selection stays a
// bare clause.
func anyOf(queries []es.Query) es.Query {
	if len(queries) == 1 {
		return queries[0]
	}
	return es.Bool{Should: queries}
}

// filtersExcluding builds the active filter set as a bool query, leaving out
// the named facet. The excluded facet is what lets each aggregation report
// "what's still choosable" on its own dimension (exclude-own-facet rule);
// an empty exclusion yields the complete filter set used by the post filter.
func filtersExcluding(p *domsearch.Params, excluded string) es.Bool {
	var b es.Bool
	if !p.HasFilters() {
		return b
	}

	if len(p.Categories) > 0 && excluded != domain.FacetCategory {
		queries := make([]es.Query, len(p.Categories))
		for i, c := range p.Categories {
			queries[i] = stringFacetFilter(domain.FacetCategory, c)
		}
		b.Filter = append(b.Filter, anyOf(queries))
	}

	if len(p.Prices) > 0 && excluded != domain.FacetPrice {
		queries := make([]es.Query, len(p.Prices))
		for i, pr := range p.Prices {
			queries[i] = numberFacetFilter(domain.FacetPrice, pr.From, pr.To)
		}
		b.Filter = append(b.Filter, anyOf(queries))
	}

	if len(p.Stores) > 0 && excluded != domain.FacetStore {
		queries := make([]es.Query, len(p.Stores))
		for i, s := range p.Stores {
			queries[i] = stringFacetFilter(domain.FacetStore, s)
		}
		b.Filter = append(b.Filter, anyOf(queries))
	}

	return b
}

// namesValuesAgg buckets a facet group by facetName, then by facetValue.
func namesValuesAgg(facetGroup string) es.Agg {
	return es.NestedAgg{
		Path: facetGroup,
		Aggs: map[string]es.Agg{
			"names": es.TermsAgg{
				Field: facetGroup + ".facetName",
				Aggs: map[string]es.Agg{
					"values": es.TermsAgg{Field: facetGroup + ".facetValue"},
				},
			},
		},
	}
}

// buildAllFiltersAgg reports every distinct facet pair under the complete
// active filter set.
func buildAllFiltersAgg(p *domsearch.Params) es.Agg {
	return es.FilterAgg{
		Filter: filtersExcluding(p, ""),
		Aggs: map[string]es.Agg{
			stringFacetGroup: namesValuesAgg(stringFacetGroup),
			numberFacetGroup: namesValuesAgg(numberFacetGroup),
		},
	}
}

// buildStringFacetAgg reports one string facet's value buckets, scoped to the
// filter set with that facet's own filter removed. The nested context pins
// facetName before bucketing, mirroring the query-side binding rule.
func buildStringFacetAgg(p *domsearch.Params, facetName string) es.Agg {
	return es.FilterAgg{
		Filter: filtersExcluding(p, facetName),
		Aggs: map[string]es.Agg{
			stringFacetGroup: es.NestedAgg{
				Path: stringFacetGroup,
				Aggs: map[string]es.Agg{
					"aggSpecial": es.FilterAgg{
						Filter: es.NewTerm(stringFacetGroup+".facetName", facetName),
						Aggs: map[string]es.Agg{
							"names": es.TermsAgg{
								Field: stringFacetGroup + ".facetName",
								Aggs: map[string]es.Agg{
									"values": es.TermsAgg{Field: stringFacetGroup + ".facetValue"},
								},
							},
						},
					},
				},
			},
		},
	}
}

// buildPriceAgg buckets prices into the fixed currency ranges, scoped to the
// filter set with the price filter removed.
func buildPriceAgg(p *domsearch.Params) es.Agg {
	ranges := make([]es.AggRange, len(priceAggBounds))
	for i, from := range priceAggBounds {
		r := es.AggRange{From: from}
		if i+1 < len(priceAggBounds) {
			to := priceAggBounds[i+1]
			r.To = &to
		}
		ranges[i] = r
	}

	return es.FilterAgg{
		Filter: filtersExcluding(p, domain.FacetPrice),
		Aggs: map[string]es.Agg{
			numberFacetGroup: es.NestedAgg{
				Path: numberFacetGroup,
				Aggs: map[string]es.Agg{
					"aggSpecial": es.FilterAgg{
						Filter: es.NewTerm(numberFacetGroup+".facetName", domain.FacetPrice),
						Aggs: map[string]es.Agg{
							"names": es.TermsAgg{
								Field: numberFacetGroup + ".facetName",
								Aggs: map[string]es.Agg{
									"values": es.RangeAgg{
										Field:  numberFacetGroup + ".facetValue",
										Ranges: ranges,
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// buildSort maps the sort key. Price sorting reads the nested numeric facet
// value, filtered to the price facet of the same nested element.
func buildSort(p *domsearch.Params) []es.Sort {
	if p.SortBy == "" {
		return nil
	}

	order := p.Order
	if order == "" {
		order = domsearch.OrderDesc
	}

	if p.SortBy == domsearch.SortByPrice {
		return []es.Sort{es.NestedFieldSort{
			Field:  numberFacetGroup + ".facetValue",
			Order:  order,
			Path:   numberFacetGroup,
			Filter: es.NewTerm(numberFacetGroup+".facetName", domain.FacetPrice),
		}}
	}

	return []es.Sort{es.FieldSort{Field: "createdAt", Order: order}}
}
