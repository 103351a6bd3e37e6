package chi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
)

const maxBodyBytes = 1 << 20

// dealRequest is the client-supplied deal body. Server-owned fields (id,
// poster, votes, views, timestamps) have no place here.
type dealRequest struct {
	Store         string   `json:"store"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	OriginalPrice float64  `json:"originalPrice"`
	Price         float64  `json:"price"`
	CoverPhoto    string   `json:"coverPhoto"`
	DealURL       string   `json:"dealUrl"`
	Photos        []string `json:"photos"`
	Status        string   `json:"status"`
}

func (r dealRequest) toDomain() *domain.Deal {
	return &domain.Deal{
		Store:         r.Store,
		Category:      r.Category,
		Tags:          r.Tags,
		Title:         r.Title,
		Description:   r.Description,
		OriginalPrice: r.OriginalPrice,
		Price:         r.Price,
		CoverPhoto:    r.CoverPhoto,
		DealURL:       r.DealURL,
		Photos:        r.Photos,
		Status:        domain.Status(r.Status),
	}
}

type voteRequest struct {
	Vote string `json:"vote"`
}

// dealResponse is the full deal body returned to clients.
type dealResponse struct {
	ID            string    `json:"id"`
	PostedBy      string    `json:"postedBy"`
	Store         string    `json:"store"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	OriginalPrice float64   `json:"originalPrice"`
	Price         float64   `json:"price"`
	CoverPhoto    string    `json:"coverPhoto"`
	DealURL       string    `json:"dealUrl,omitempty"`
	Photos        []string  `json:"photos,omitempty"`
	Status        string    `json:"status"`
	Views         int       `json:"views"`
	Upvoters      []string  `json:"upvoters"`
	Downvoters    []string  `json:"downvoters"`
	Score         int       `json:"dealScore"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func dealToResponse(d *domain.Deal) dealResponse {
	upvoters := d.Upvoters
	if upvoters == nil {
		upvoters = []string{}
	}
	downvoters := d.Downvoters
	if downvoters == nil {
		downvoters = []string{}
	}
	return dealResponse{
		ID:            d.ID,
		PostedBy:      d.PostedBy,
		Store:         d.Store,
		Category:      d.Category,
		Tags:          d.Tags,
		Title:         d.Title,
		Description:   d.Description,
		OriginalPrice: d.OriginalPrice,
		Price:         d.Price,
		CoverPhoto:    d.CoverPhoto,
		DealURL:       d.DealURL,
		Photos:        d.Photos,
		Status:        string(d.Status),
		Views:         d.Views,
		Upvoters:      upvoters,
		Downvoters:    downvoters,
		Score:         d.Score,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type listResponse struct {
	Items []dealResponse `json:"items"`
	Count int            `json:"count"`
}

func dealListResponse(deals []*domain.Deal) listResponse {
	items := make([]dealResponse, len(deals))
	for i, d := range deals {
		items[i] = dealToResponse(d)
	}
	return listResponse{Items: items, Count: len(items)}
}

// searchResponse mirrors the search result: ranked hits plus facet buckets.
type searchResponse struct {
	Items  []searchHit  `json:"items"`
	Total  int64        `json:"total"`
	Facets facetsResult `json:"facets"`
}

type searchHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Title string  `json:"title"`
}

type facetsResult struct {
	All struct {
		StringFacets map[string][]valueBucket `json:"stringFacets"`
		NumberFacets map[string][]valueBucket `json:"numberFacets"`
	} `json:"all"`
	Categories  []valueBucket `json:"categories"`
	Stores      []valueBucket `json:"stores"`
	PriceRanges []rangeBucket `json:"priceRanges"`
}

type valueBucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type rangeBucket struct {
	From  float64  `json:"from"`
	To    *float64 `json:"to,omitempty"`
	Count int64    `json:"count"`
}

func searchToResponse(res *domsearch.Result) searchResponse {
	out := searchResponse{
		Items: make([]searchHit, len(res.Hits)),
		Total: res.Total,
	}
	for i, h := range res.Hits {
		out.Items[i] = searchHit{ID: h.ID, Score: h.Score, Title: h.Title}
	}
	out.Facets.All.StringFacets = valueBucketMap(res.Aggs.AllStringFacets)
	out.Facets.All.NumberFacets = valueBucketMap(res.Aggs.AllNumberFacets)
	out.Facets.Categories = valueBuckets(res.Aggs.Categories)
	out.Facets.Stores = valueBuckets(res.Aggs.Stores)
	out.Facets.PriceRanges = make([]rangeBucket, len(res.Aggs.PriceRanges))
	for i, b := range res.Aggs.PriceRanges {
		out.Facets.PriceRanges[i] = rangeBucket{From: b.From, To: b.To, Count: b.Count}
	}
	return out
}

func valueBuckets(in []domsearch.ValueBucket) []valueBucket {
	out := make([]valueBucket, len(in))
	for i, b := range in {
		out[i] = valueBucket{Value: b.Value, Count: b.Count}
	}
	return out
}

func valueBucketMap(in domsearch.FacetBuckets) map[string][]valueBucket {
	out := make(map[string][]valueBucket, len(in))
	for name, buckets := range in {
		out[name] = valueBuckets(buckets)
	}
	return out
}

// parsePage reads page/size query parameters. Malformed values fall back to
// zero and get normalized by the use case.
func parsePage(r *http.Request) domsearch.Page {
	var page domsearch.Page
	if v := r.URL.Query().Get("page"); v != "" {
		page.Number, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("size"); v != "" {
		page.Size, _ = strconv.Atoi(v)
	}
	return page
}

// parseSearchParams reads the faceted search query string. Repeatable
// parameters: category, store, price (formats "10-50", "10-").
func parseSearchParams(r *http.Request) (*domsearch.Params, error) {
	q := r.URL.Query()
	params := &domsearch.Params{
		Query:      q.Get("q"),
		Categories: q["category"],
		Stores:     q["store"],
		SortBy:     q.Get("sortBy"),
		Order:      q.Get("order"),
	}

	if v := q.Get("hideExpired"); v != "" {
		hide, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("hideExpired must be a boolean, got %q", v)
		}
		params.HideExpired = hide
	}

	for _, raw := range q["price"] {
		pr, err := parsePriceRange(raw)
		if err != nil {
			return nil, err
		}
		params.Prices = append(params.Prices, pr)
	}

	return params, nil
}

// parsePriceRange parses "from-to" with an optional open upper bound ("10-").
func parsePriceRange(raw string) (domsearch.PriceRange, error) {
	fromStr, toStr, found := strings.Cut(raw, "-")
	if !found {
		return domsearch.PriceRange{}, fmt.Errorf("price range %q must look like \"10-50\" or \"10-\"", raw)
	}

	from, err := strconv.ParseFloat(fromStr, 64)
	if err != nil {
		return domsearch.PriceRange{}, fmt.Errorf("price range %q has a bad lower bound", raw)
	}

	pr := domsearch.PriceRange{From: from}
	if toStr != "" {
		to, err := strconv.ParseFloat(toStr, 64)
		if err != nil {
			return domsearch.PriceRange{}, fmt.Errorf("price range %q has a bad upper bound", raw)
		}
		pr.To = &to
	}
	return pr, nil
}

func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}
