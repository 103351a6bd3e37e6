// Package comment implements the slice of the comment subsystem the deal
// coordinator depends on: removing a deal's comments before the deal itself
// is deleted.
package comment

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection is the consumer interface over the comments collection (ISP).
type collection interface {
	DeleteMany(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Repo implements the comment repository.
type Repo struct {
	comments collection
}

// New creates a comment repository.
func New(comments collection) *Repo {
	return &Repo{comments: comments}
}

// DeleteAllForDeal removes every comment attached to a deal.
func (r *Repo) DeleteAllForDeal(ctx context.Context, dealID string) error {
	if _, err := r.comments.DeleteMany(ctx, bson.M{"dealId": dealID}); err != nil {
		return fmt.Errorf("delete comments for deal %s: %w", dealID, err)
	}
	return nil
}
