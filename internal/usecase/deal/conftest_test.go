package deal

import (
	"context"
	"testing"
	"time"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
)

// --- Mocks ---

type mockRepo struct {
	saveErr    error
	saved      *domain.Deal
	findResult *domain.Deal
	findErr    error
	deleteErr  error
	deleted    []string
	viewResult *domain.Deal
	viewErr    error
	voteResult *domain.Deal
	voteErr    error
	voteCalls  int
	pageDeals  []*domain.Deal
	pageErr    error
	lastPage   domsearch.Page
	count      int64
	countErr   error
}

func (m *mockRepo) Save(_ context.Context, d *domain.Deal) error {
	m.saved = d
	return m.saveErr
}
func (m *mockRepo) FindByID(_ context.Context, _ string) (*domain.Deal, error) {
	return m.findResult, m.findErr
}
func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}
func (m *mockRepo) IncrementViews(_ context.Context, _ string) (*domain.Deal, error) {
	return m.viewResult, m.viewErr
}
func (m *mockRepo) ApplyVote(_ context.Context, _, _ string, _ domain.VoteType) (*domain.Deal, error) {
	m.voteCalls++
	return m.voteResult, m.voteErr
}
func (m *mockRepo) Latest(_ context.Context, page domsearch.Page) ([]*domain.Deal, error) {
	m.lastPage = page
	return m.pageDeals, m.pageErr
}
func (m *mockRepo) MostLiked(_ context.Context, page domsearch.Page) ([]*domain.Deal, error) {
	m.lastPage = page
	return m.pageDeals, m.pageErr
}
func (m *mockRepo) ByCategory(_ context.Context, _ string, page domsearch.Page) ([]*domain.Deal, error) {
	m.lastPage = page
	return m.pageDeals, m.pageErr
}
func (m *mockRepo) ByStore(_ context.Context, _ string, page domsearch.Page) ([]*domain.Deal, error) {
	m.lastPage = page
	return m.pageDeals, m.pageErr
}
func (m *mockRepo) CountByPoster(_ context.Context, _ string) (int64, error) {
	return m.count, m.countErr
}
func (m *mockRepo) CountByStore(_ context.Context, _ string) (int64, error) {
	return m.count, m.countErr
}

type mockIndex struct {
	indexErr  error
	indexed   []domain.SearchDocument
	deleteErr error
	deleted   []string
}

func (m *mockIndex) Index(_ context.Context, doc domain.SearchDocument) error {
	m.indexed = append(m.indexed, doc)
	return m.indexErr
}
func (m *mockIndex) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

type mockCategories struct {
	findErr   error
	createErr error
	created   []string
}

func (m *mockCategories) FindTagByPath(_ context.Context, _ string) (*domain.Category, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return &domain.Category{}, nil
}
func (m *mockCategories) CreateTag(_ context.Context, tag domain.Category) (*domain.Category, error) {
	m.created = append(m.created, tag.Path)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &tag, nil
}

type mockComments struct {
	deleteErr error
	deleted   []string
}

func (m *mockComments) DeleteAllForDeal(_ context.Context, dealID string) error {
	m.deleted = append(m.deleted, dealID)
	return m.deleteErr
}

// --- Helpers ---

func makeService(repo *mockRepo, index *mockIndex, cats *mockCategories, comments *mockComments) *Service {
	svc := New(repo, index, cats, comments)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "deal-1" }
	return svc
}

func makeDeal(t *testing.T) *domain.Deal {
	t.Helper()
	return &domain.Deal{
		PostedBy:      "actor-1",
		Store:         "store-1",
		Category:      "/electronics/audio",
		Title:         "Noise cancelling headphones",
		Description:   "Half price this week",
		OriginalPrice: 200,
		Price:         99.99,
		CoverPhoto:    "https://img.example/cover.jpg",
		Status:        domain.StatusActive,
	}
}
