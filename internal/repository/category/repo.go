// Package category implements the category/tag repository on MongoDB. The
// deal coordinator uses it to lazily materialize tag categories referenced by
// a deal before the deal is persisted.
package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dealspot-cloud/dealdex/internal/domain"
)

// collection is the consumer interface over the categories collection (ISP).
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Repo implements the category repository.
type Repo struct {
	categories collection
	now        func() time.Time
}

// New creates a category repository.
func New(categories collection) *Repo {
	return &Repo{categories: categories, now: time.Now}
}

type categoryDocument struct {
	ID        string            `bson:"_id"`
	Path      string            `bson:"category"`
	Parent    string            `bson:"parent"`
	Names     map[string]string `bson:"names"`
	IsTag     bool              `bson:"isTag"`
	CreatedAt time.Time         `bson:"createdAt"`
	UpdatedAt time.Time         `bson:"updatedAt"`
}

func toModel(doc *categoryDocument) *domain.Category {
	return &domain.Category{
		ID:        doc.ID,
		Path:      doc.Path,
		Parent:    doc.Parent,
		Names:     doc.Names,
		IsTag:     doc.IsTag,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// FindTagByPath looks up a tag-flagged category by its path.
func (r *Repo) FindTagByPath(ctx context.Context, path string) (*domain.Category, error) {
	var doc categoryDocument
	err := r.categories.FindOne(ctx, bson.M{"category": path, "isTag": true}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tag %s: %w", path, err)
	}
	return toModel(&doc), nil
}

// CreateTag persists a new tag category.
func (r *Repo) CreateTag(ctx context.Context, tag domain.Category) (*domain.Category, error) {
	now := r.now().UTC()
	doc := categoryDocument{
		ID:        uuid.NewString(),
		Path:      tag.Path,
		Parent:    tag.Parent,
		Names:     tag.Names,
		IsTag:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.categories.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("create tag %s: %w", tag.Path, err)
	}
	return toModel(&doc), nil
}
