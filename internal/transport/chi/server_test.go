package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
	dealuc "github.com/dealspot-cloud/dealdex/internal/usecase/deal"
	searchuc "github.com/dealspot-cloud/dealdex/internal/usecase/search"
)

// --- Stub backends ---

type stubRepo struct {
	deal    *domain.Deal
	findErr error
}

func (s *stubRepo) Save(_ context.Context, d *domain.Deal) error { return nil }
func (s *stubRepo) FindByID(_ context.Context, _ string) (*domain.Deal, error) {
	return s.deal, s.findErr
}
func (s *stubRepo) Delete(_ context.Context, _ string) error { return nil }
func (s *stubRepo) IncrementViews(_ context.Context, _ string) (*domain.Deal, error) {
	return s.deal, s.findErr
}
func (s *stubRepo) ApplyVote(_ context.Context, _, _ string, _ domain.VoteType) (*domain.Deal, error) {
	return s.deal, nil
}
func (s *stubRepo) Latest(_ context.Context, _ domsearch.Page) ([]*domain.Deal, error) {
	return []*domain.Deal{s.deal}, nil
}
func (s *stubRepo) MostLiked(_ context.Context, _ domsearch.Page) ([]*domain.Deal, error) {
	return []*domain.Deal{s.deal}, nil
}
func (s *stubRepo) ByCategory(_ context.Context, _ string, _ domsearch.Page) ([]*domain.Deal, error) {
	return []*domain.Deal{s.deal}, nil
}
func (s *stubRepo) ByStore(_ context.Context, _ string, _ domsearch.Page) ([]*domain.Deal, error) {
	return []*domain.Deal{s.deal}, nil
}
func (s *stubRepo) CountByPoster(_ context.Context, _ string) (int64, error) { return 3, nil }
func (s *stubRepo) CountByStore(_ context.Context, _ string) (int64, error)  { return 5, nil }

type stubIndex struct{}

func (stubIndex) Index(_ context.Context, _ domain.SearchDocument) error { return nil }
func (stubIndex) Delete(_ context.Context, _ string) error               { return nil }

type stubCategories struct{}

func (stubCategories) FindTagByPath(_ context.Context, _ string) (*domain.Category, error) {
	return &domain.Category{}, nil
}
func (stubCategories) CreateTag(_ context.Context, tag domain.Category) (*domain.Category, error) {
	return &tag, nil
}

type stubComments struct{}

func (stubComments) DeleteAllForDeal(_ context.Context, _ string) error { return nil }

type stubSearcher struct {
	result *domsearch.Result
	err    error
}

func (s *stubSearcher) Search(_ context.Context, _ *domsearch.Params, _ domsearch.Page) (*domsearch.Result, error) {
	return s.result, s.err
}
func (s *stubSearcher) Suggest(_ context.Context, _ string) ([]string, error) {
	return []string{"USB hub"}, s.err
}

// --- Helpers ---

func storedDeal() *domain.Deal {
	return &domain.Deal{
		ID:            "deal-1",
		PostedBy:      "actor-1",
		Store:         "store-1",
		Category:      "/electronics",
		Title:         "USB hub",
		Description:   "7 ports",
		OriginalPrice: 40,
		Price:         25,
		CoverPhoto:    "https://img.example/hub.jpg",
		Status:        domain.StatusActive,
	}
}

func newTestRouter(repo *stubRepo, searcher *stubSearcher) http.Handler {
	deals := dealuc.New(repo, stubIndex{}, stubCategories{}, stubComments{})
	search := searchuc.New(searcher)
	srv := NewServer(deals, search, zap.NewNop())

	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req = req.WithContext(ContextWithActor(req.Context(), actor))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestCreateDeal_Created(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	body := dealRequest{
		Store:         "store-1",
		Category:      "/electronics",
		Title:         "USB hub",
		Description:   "7 ports",
		OriginalPrice: 40,
		Price:         25,
		CoverPhoto:    "https://img.example/hub.jpg",
	}
	rr := doRequest(t, h, "POST", "/api/v1/deals", "actor-1", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc == "" {
		t.Error("missing Location header")
	}
	var resp dealResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PostedBy != "actor-1" {
		t.Errorf("postedBy = %q", resp.PostedBy)
	}
}

func TestCreateDeal_NoActor_401(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	rr := doRequest(t, h, "POST", "/api/v1/deals", "", dealRequest{})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestCreateDeal_Invalid_400(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	rr := doRequest(t, h, "POST", "/api/v1/deals", "actor-1", dealRequest{Title: ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeValidationFailed {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestGetDeal_NotFound_404(t *testing.T) {
	h := newTestRouter(&stubRepo{findErr: domain.ErrNotFound}, &stubSearcher{})

	rr := doRequest(t, h, "GET", "/api/v1/deals/missing", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestUpdateDeal_Forbidden_403(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	body := dealRequest{
		Store:         "store-1",
		Category:      "/electronics",
		Title:         "USB hub",
		Description:   "7 ports",
		OriginalPrice: 40,
		Price:         25,
		CoverPhoto:    "https://img.example/hub.jpg",
	}
	rr := doRequest(t, h, "PUT", "/api/v1/deals/deal-1", "actor-2", body)
	if rr.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestVoteDeal_Repeat_304(t *testing.T) {
	d := storedDeal()
	d.Upvoters = []string{"actor-2"}
	h := newTestRouter(&stubRepo{deal: d}, &stubSearcher{})

	rr := doRequest(t, h, "POST", "/api/v1/deals/deal-1/votes", "actor-2", voteRequest{Vote: "UP"})
	if rr.Code != http.StatusNotModified {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNotModified)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("304 must not carry a body, got %q", rr.Body.String())
	}
}

func TestVoteDeal_Success(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	rr := doRequest(t, h, "POST", "/api/v1/deals/deal-1/votes", "actor-2", voteRequest{Vote: "UP"})
	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestDeleteDeal_NoContent(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	rr := doRequest(t, h, "DELETE", "/api/v1/deals/deal-1", "actor-1", nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNoContent)
	}
}

func TestCountDeals(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	rr := doRequest(t, h, "GET", "/api/v1/deals/count?postedBy=actor-1", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp map[string]int64
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["count"] != 3 {
		t.Errorf("count = %d", resp["count"])
	}

	rr = doRequest(t, h, "GET", "/api/v1/deals/count", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing params: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearchDeals(t *testing.T) {
	searcher := &stubSearcher{result: &domsearch.Result{
		Hits:  []domsearch.Hit{{ID: "deal-1", Score: 1.5, Title: "USB hub"}},
		Total: 1,
	}}
	h := newTestRouter(&stubRepo{deal: storedDeal()}, searcher)

	rr := doRequest(t, h, "GET", "/api/v1/deals/search?q=hub&category=/electronics&price=10-50", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 || resp.Items[0].ID != "deal-1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchDeals_BadPriceRange_400(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	rr := doRequest(t, h, "GET", "/api/v1/deals/search?price=cheap", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSuggestDeals(t *testing.T) {
	h := newTestRouter(&stubRepo{deal: storedDeal()}, &stubSearcher{})

	rr := doRequest(t, h, "GET", "/api/v1/deals/suggestions?q=usb", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp["suggestions"]) != 1 {
		t.Errorf("suggestions = %v", resp)
	}
}

func TestParsePriceRange(t *testing.T) {
	pr, err := parsePriceRange("10-50")
	if err != nil || pr.From != 10 || pr.To == nil || *pr.To != 50 {
		t.Errorf("bounded: %+v err=%v", pr, err)
	}

	pr, err = parsePriceRange("2000-")
	if err != nil || pr.From != 2000 || pr.To != nil {
		t.Errorf("unbounded: %+v err=%v", pr, err)
	}

	if _, err = parsePriceRange("cheap"); err == nil {
		t.Error("expected error for malformed range")
	}
}
