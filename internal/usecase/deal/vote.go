package deal

import (
	"context"
	"fmt"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	"github.com/dealspot-cloud/dealdex/internal/metrics"
)

// Vote records an actor's vote on a deal. The membership change and the score
// recomputation happen in a single server-evaluated update, so concurrent
// votes never lose each other's writes. A repeat of the same direction is
// reported as ErrAlreadyVoted without touching the record.
func (s *Service) Vote(ctx context.Context, actorID, id string, vote domain.VoteType) (*domain.Deal, error) {
	if !vote.Valid() {
		return nil, fmt.Errorf("unknown vote type %q: %w", vote, domain.ErrValidation)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch vote {
	case domain.VoteUp:
		if existing.HasUpvoted(actorID) {
			metrics.VotesTotal.WithLabelValues(string(vote), "conflict").Inc()
			return nil, domain.ErrAlreadyVoted
		}
	case domain.VoteDown:
		if existing.HasDownvoted(actorID) {
			metrics.VotesTotal.WithLabelValues(string(vote), "conflict").Inc()
			return nil, domain.ErrAlreadyVoted
		}
	case domain.VoteUnvote:
		// Removing an absent vote is a no-op, never a conflict.
	}

	updated, err := s.repo.ApplyVote(ctx, id, actorID, vote)
	if err != nil {
		metrics.VotesTotal.WithLabelValues(string(vote), "error").Inc()
		return nil, err
	}
	metrics.VotesTotal.WithLabelValues(string(vote), "ok").Inc()
	return updated, nil
}
