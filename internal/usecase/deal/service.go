// Package deal implements the indexing coordinator and the vote engine: it
// owns the dual write between the record store and the search index, the
// compensation policy on index failure, and the atomic vote bookkeeping.
package deal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
	"github.com/dealspot-cloud/dealdex/internal/logger"
	"github.com/dealspot-cloud/dealdex/internal/metrics"
)

// Service coordinates the record store and the search index.
type Service struct {
	repo            Repository
	index           SearchIndex
	categories      CategoryStore
	comments        CommentDeleter
	now             func() time.Time
	newID           func() string
	defaultPageSize int
	maxPageSize     int
}

// New creates a deal service.
func New(repo Repository, index SearchIndex, categories CategoryStore, comments CommentDeleter) *Service {
	return &Service{
		repo:            repo,
		index:           index,
		categories:      categories,
		comments:        comments,
		now:             time.Now,
		newID:           uuid.NewString,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Create persists a new deal and its search document. The operation is
// all-or-nothing for the caller: if the index write fails, the just-created
// record is deleted again and the failure surfaced. A record must never
// exist without its search document.
func (s *Service) Create(ctx context.Context, actorID string, d *domain.Deal) (*domain.Deal, error) {
	d.PostedBy = actorID
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureTags(ctx, d.Tags); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d.ID = s.newID()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = domain.StatusActive
	}
	// Server-owned fields start from zero regardless of what the caller sent.
	d.Views = 0
	d.Upvoters = nil
	d.Downvoters = nil
	d.Score = 0

	if err := s.repo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	if err := s.writeIndexOrCompensate(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update persists changes by the deal's author and rewrites the search
// document, with the same compensating delete on index failure as Create.
func (s *Service) Update(ctx context.Context, actorID string, d *domain.Deal) (*domain.Deal, error) {
	existing, err := s.repo.FindByID(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if existing.PostedBy != actorID {
		return nil, fmt.Errorf("deal %s belongs to another actor: %w", d.ID, domain.ErrForbidden)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	if tagsChanged(existing.Tags, d.Tags) {
		if err := s.ensureTags(ctx, d.Tags); err != nil {
			return nil, err
		}
	}

	// Server-owned fields survive the update untouched.
	d.PostedBy = existing.PostedBy
	d.CreatedAt = existing.CreatedAt
	d.Views = existing.Views
	d.Upvoters = existing.Upvoters
	d.Downvoters = existing.Downvoters
	d.Score = existing.Score
	d.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	if err := s.writeIndexOrCompensate(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a deal, its comments and its search document. The index
// delete is best effort: a failure after the record delete succeeded is
// logged and tolerated, leaving a transient orphan search document rather
// than failing the whole operation.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.PostedBy != actorID {
		return fmt.Errorf("deal %s belongs to another actor: %w", id, domain.ErrForbidden)
	}

	if err := s.comments.DeleteAllForDeal(ctx, id); err != nil {
		return fmt.Errorf("delete deal comments: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if err := s.index.Delete(ctx, id); err != nil {
		metrics.IndexWritesTotal.WithLabelValues("delete", "error").Inc()
		logger.FromContext(ctx).Error("orphan search document left behind",
			zap.String("deal_id", id),
			zap.Error(err),
		)
		return nil
	}
	metrics.IndexWritesTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// GetByID returns a deal and counts the read as a view.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	return s.repo.IncrementViews(ctx, id)
}

// Latest returns a page of active deals, newest first.
func (s *Service) Latest(ctx context.Context, page domsearch.Page) ([]*domain.Deal, error) {
	return s.repo.Latest(ctx, page.Normalize(s.defaultPageSize, s.maxPageSize))
}

// MostLiked returns a page of active deals by descending score.
func (s *Service) MostLiked(ctx context.Context, page domsearch.Page) ([]*domain.Deal, error) {
	return s.repo.MostLiked(ctx, page.Normalize(s.defaultPageSize, s.maxPageSize))
}

// ByCategory returns a page of deals under a category path prefix.
func (s *Service) ByCategory(ctx context.Context, prefix string, page domsearch.Page) ([]*domain.Deal, error) {
	return s.repo.ByCategory(ctx, prefix, page.Normalize(s.defaultPageSize, s.maxPageSize))
}

// ByStore returns a page of a store's deals.
func (s *Service) ByStore(ctx context.Context, storeID string, page domsearch.Page) ([]*domain.Deal, error) {
	return s.repo.ByStore(ctx, storeID, page.Normalize(s.defaultPageSize, s.maxPageSize))
}

// CountByPoster counts an actor's deals.
func (s *Service) CountByPoster(ctx context.Context, actorID string) (int64, error) {
	return s.repo.CountByPoster(ctx, actorID)
}

// CountByStore counts a store's deals.
func (s *Service) CountByStore(ctx context.Context, storeID string) (int64, error) {
	return s.repo.CountByStore(ctx, storeID)
}

// writeIndexOrCompensate projects and indexes the deal. On failure it deletes
// the record again so no record exists without a search document, then
// surfaces the index failure.
func (s *Service) writeIndexOrCompensate(ctx context.Context, d *domain.Deal) error {
	err := s.index.Index(ctx, domain.ProjectDeal(d))
	if err == nil {
		metrics.IndexWritesTotal.WithLabelValues("index", "ok").Inc()
		return nil
	}
	metrics.IndexWritesTotal.WithLabelValues("index", "error").Inc()

	if delErr := s.repo.Delete(ctx, d.ID); delErr != nil && !errors.Is(delErr, domain.ErrNotFound) {
		metrics.CompensationsTotal.WithLabelValues("orphan").Inc()
		logger.FromContext(ctx).Error("compensating delete failed, orphan record remains",
			zap.String("deal_id", d.ID),
			zap.Error(delErr),
		)
	} else {
		metrics.CompensationsTotal.WithLabelValues("ok").Inc()
	}
	return fmt.Errorf("%w: %w", domain.ErrIndexWrite, err)
}

// ensureTags lazily creates tag categories for unknown tag paths.
func (s *Service) ensureTags(ctx context.Context, tags []string) error {
	for _, path := range tags {
		_, err := s.categories.FindTagByPath(ctx, path)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrCategoryNotFound) {
			return fmt.Errorf("look up tag %s: %w", path, err)
		}
		if _, err := s.categories.CreateTag(ctx, domain.NewTag(path)); err != nil {
			return fmt.Errorf("create tag %s: %w", path, err)
		}
	}
	return nil
}

func tagsChanged(a, b []string) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}
