// Package deal implements the authoritative deal-record repository on
// MongoDB, including the server-evaluated atomic updates used for view
// counting and vote transitions.
package deal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	domsearch "github.com/dealspot-cloud/dealdex/internal/domain/search"
)

// collection is the consumer interface over the deals collection (ISP).
type collection interface {
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter any, update any, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter any, opts ...*options.CountOptions) (int64, error)
}

// Repo implements the deal record repository.
type Repo struct {
	deals collection
}

// New creates a deal repository.
func New(deals collection) *Repo {
	return &Repo{deals: deals}
}

// dealDocument is the MongoDB schema for a deal record.
type dealDocument struct {
	ID            string    `bson:"_id"`
	PostedBy      string    `bson:"postedBy"`
	Store         string    `bson:"store"`
	Category      string    `bson:"category"`
	Tags          []string  `bson:"tags,omitempty"`
	Title         string    `bson:"title"`
	Description   string    `bson:"description"`
	OriginalPrice float64   `bson:"originalPrice"`
	Price         float64   `bson:"price"`
	CoverPhoto    string    `bson:"coverPhoto"`
	DealURL       string    `bson:"dealUrl,omitempty"`
	Photos        []string  `bson:"photos,omitempty"`
	Status        string    `bson:"status"`
	Views         int       `bson:"views"`
	Upvoters      []string  `bson:"upvoters"`
	Downvoters    []string  `bson:"downvoters"`
	Score         int       `bson:"dealScore"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func toDocument(d *domain.Deal) *dealDocument {
	doc := &dealDocument{
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
		Upvoters:      d.Upvoters,
		Downvoters:    d.Downvoters,
		Score:         d.Score,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	// The vote pipeline reads these arrays server-side; they must exist.
	if doc.Upvoters == nil {
		doc.Upvoters = []string{}
	}
	if doc.Downvoters == nil {
		doc.Downvoters = []string{}
	}
	return doc
}

func toModel(doc *dealDocument) *domain.Deal {
	return &domain.Deal{
		ID:            doc.ID,
		PostedBy:      doc.PostedBy,
		Store:         doc.Store,
		Category:      doc.Category,
		Tags:          doc.Tags,
		Title:         doc.Title,
		Description:   doc.Description,
		OriginalPrice: doc.OriginalPrice,
		Price:         doc.Price,
		CoverPhoto:    doc.CoverPhoto,
		DealURL:       doc.DealURL,
		Photos:        doc.Photos,
		Status:        domain.Status(doc.Status),
		Views:         doc.Views,
		Upvoters:      doc.Upvoters,
		Downvoters:    doc.Downvoters,
		Score:         doc.Score,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

// Save upserts a deal record.
func (r *Repo) Save(ctx context.Context, d *domain.Deal) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": d.ID}
	update := bson.M{"$set": toDocument(d)}

	if _, err := r.deals.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("save deal %s: %w", d.ID, err)
	}
	return nil
}

// FindByID retrieves a deal record by id.
func (r *Repo) FindByID(ctx context.Context, id string) (*domain.Deal, error) {
	var doc dealDocument
	err := r.deals.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find deal %s: %w", id, err)
	}
	return toModel(&doc), nil
}

// Delete removes a deal record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.deals.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete deal %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementViews atomically bumps the view counter and returns the updated
// record. Views never route through the search index.
func (r *Repo) IncrementViews(ctx context.Context, id string) (*domain.Deal, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"views": 1}}

	var doc dealDocument
	err := r.deals.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment views %s: %w", id, err)
	}
	return toModel(&doc), nil
}

// ApplyVote runs the vote transition as a single server-evaluated pipeline
// update: stage one rewrites the voter arrays, stage two recomputes the score
// from the rewritten arrays. Nothing is computed from a client-side snapshot,
// so concurrent voters cannot lose updates.
func (r *Repo) ApplyVote(ctx context.Context, id, actorID string, vote domain.VoteType) (*domain.Deal, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc dealDocument
	err := r.deals.FindOneAndUpdate(ctx, bson.M{"_id": id}, votePipeline(actorID, vote), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("apply vote %s: %w", id, err)
	}
	return toModel(&doc), nil
}

func votePipeline(actorID string, vote domain.VoteType) mongo.Pipeline {
	var voters bson.D
	switch vote {
	case domain.VoteUnvote:
		voters = bson.D{
			{Key: "upvoters", Value: withoutActor("upvoters", actorID)},
			{Key: "downvoters", Value: withoutActor("downvoters", actorID)},
		}
	case domain.VoteDown:
		voters = bson.D{
			{Key: "downvoters", Value: withActor("downvoters", actorID)},
			{Key: "upvoters", Value: withoutActor("upvoters", actorID)},
		}
	default: // VoteUp
		voters = bson.D{
			{Key: "upvoters", Value: withActor("upvoters", actorID)},
			{Key: "downvoters", Value: withoutActor("downvoters", actorID)},
		}
	}

	score := bson.D{{Key: "dealScore", Value: bson.D{{Key: "$subtract", Value: bson.A{
		bson.D{{Key: "$size", Value: "$upvoters"}},
		bson.D{{Key: "$size", Value: "$downvoters"}},
	}}}}}

	return mongo.Pipeline{
		bson.D{{Key: "$set", Value: voters}},
		bson.D{{Key: "$set", Value: score}},
	}
}

func withActor(field, actorID string) bson.D {
	return bson.D{{Key: "$setUnion", Value: bson.A{"$" + field, bson.A{actorID}}}}
}

func withoutActor(field, actorID string) bson.D {
	return bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: "$" + field},
		{Key: "as", Value: "id"},
		{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$id", actorID}}}},
	}}}
}

// Latest returns active deals ordered by creation time, newest first.
func (r *Repo) Latest(ctx context.Context, page domsearch.Page) ([]*domain.Deal, error) {
	filter := bson.M{"status": string(domain.StatusActive)}
	sort := bson.D{{Key: "createdAt", Value: -1}}
	return r.findPage(ctx, filter, sort, page)
}

// MostLiked returns active deals ordered by score, highest first.
func (r *Repo) MostLiked(ctx context.Context, page domsearch.Page) ([]*domain.Deal, error) {
	filter := bson.M{"status": string(domain.StatusActive)}
	sort := bson.D{{Key: "dealScore", Value: -1}}
	return r.findPage(ctx, filter, sort, page)
}

// ByCategory returns deals whose category path starts with the prefix,
// newest first.
func (r *Repo) ByCategory(ctx context.Context, prefix string, page domsearch.Page) ([]*domain.Deal, error) {
	filter := bson.M{"category": bson.M{"$regex": primitive.Regex{Pattern: "^" + prefix}}}
	sort := bson.D{{Key: "createdAt", Value: -1}}
	return r.findPage(ctx, filter, sort, page)
}

// ByStore returns a store's deals, newest first.
func (r *Repo) ByStore(ctx context.Context, storeID string, page domsearch.Page) ([]*domain.Deal, error) {
	filter := bson.M{"store": storeID}
	sort := bson.D{{Key: "createdAt", Value: -1}}
	return r.findPage(ctx, filter, sort, page)
}

// CountByPoster counts an actor's deals.
func (r *Repo) CountByPoster(ctx context.Context, actorID string) (int64, error) {
	n, err := r.deals.CountDocuments(ctx, bson.M{"postedBy": actorID})
	if err != nil {
		return 0, fmt.Errorf("count deals by poster: %w", err)
	}
	return n, nil
}

// CountByStore counts a store's deals.
func (r *Repo) CountByStore(ctx context.Context, storeID string) (int64, error) {
	n, err := r.deals.CountDocuments(ctx, bson.M{"store": storeID})
	if err != nil {
		return 0, fmt.Errorf("count deals by store: %w", err)
	}
	return n, nil
}

func (r *Repo) findPage(ctx context.Context, filter bson.M, sort bson.D, page domsearch.Page) ([]*domain.Deal, error) {
	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))

	cursor, err := r.deals.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find deals: %w", err)
	}
	defer cursor.Close(ctx)

	var deals []*domain.Deal
	for cursor.Next(ctx) {
		var doc dealDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode deal: %w", err)
		}
		deals = append(deals, toModel(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}
	return deals, nil
}
