package deal

import (
	"context"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
)

// Repository is the authoritative record store for deals.
type Repository interface {
	Save(ctx context.Context, d *domain.Deal) error
	FindByID(ctx context.Context, id string) (*domain.Deal, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (*domain.Deal, error)
	ApplyVote(ctx context.Context, id, actorID string, vote domain.VoteType) (*domain.Deal, error)

	Latest(ctx context.Context, page domsearch.Page) ([]*domain.Deal, error)
	MostLiked(ctx context.Context, page domsearch.Page) ([]*domain.Deal, error)
	ByCategory(ctx context.Context, prefix string, page domsearch.Page) ([]*domain.Deal, error)
	ByStore(ctx context.Context, storeID string, page domsearch.Page) ([]*domain.Deal, error)
	CountByPoster(ctx context.Context, actorID string) (int64, error)
	CountByStore(ctx context.Context, storeID string) (int64, error)
}

// SearchIndex writes and deletes derived search documents. The coordinator is
// the only caller.
type SearchIndex interface {
	Index(ctx context.Context, doc domain.SearchDocument) error
	Delete(ctx context.Context, id string) error
}

// CategoryStore lazily materializes tag categories referenced by deals.
type CategoryStore interface {
	FindTagByPath(ctx context.Context, path string) (*domain.Category, error)
	CreateTag(ctx context.Context, tag domain.Category) (*domain.Category, error)
}

// CommentDeleter removes a deal's dependent comments before the deal is
// deleted.
type CommentDeleter interface {
	DeleteAllForDeal(ctx context.Context, dealID string) error
}
