package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a deal.
type Status string

// Deal lifecycle states.
const (
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
	StatusPending Status = "PENDING"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusPending:
		return true
	}
	return false
}

// VoteType is a vote transition requested by an actor.
type VoteType string

// Vote transitions.
const (
	VoteUp     VoteType = "UP"
	VoteDown   VoteType = "DOWN"
	VoteUnvote VoteType = "UNVOTE"
)

// Valid reports whether v is a known vote type.
func (v VoteType) Valid() bool {
	switch v {
	case VoteUp, VoteDown, VoteUnvote:
		return true
	}
	return false
}

// Deal is the authoritative deal record. The record store owns it exclusively;
// Score and the voter sets are only ever written through the vote transition,
// and Score is always recomputed as len(Upvoters) - len(Downvoters).
type Deal struct {
	ID            string
	PostedBy      string
	Store         string
	Category      string
	Tags          []string
	Title         string
	Description   string
	OriginalPrice float64
	Price         float64
	CoverPhoto    string
	DealURL       string
	Photos        []string
	Status        Status
	Views         int
	Upvoters      []string
	Downvoters    []string
	Score         int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the fields a caller controls on create/update.
func (d *Deal) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required: %w", ErrValidation)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("description is required: %w", ErrValidation)
	}
	if !strings.HasPrefix(d.Category, "/") {
		return fmt.Errorf("category must be a path starting with '/': %w", ErrValidation)
	}
	if d.Store == "" {
		return fmt.Errorf("store is required: %w", ErrValidation)
	}
	if d.Price < 0 {
		return fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	if d.OriginalPrice < 1 {
		return fmt.Errorf("original price must be >= 1: %w", ErrValidation)
	}
	if d.CoverPhoto == "" {
		return fmt.Errorf("cover photo is required: %w", ErrValidation)
	}
	if d.Status != "" && !d.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", d.Status, ErrValidation)
	}
	return nil
}

// HasUpvoted reports whether the actor is in the upvoter set.
func (d *Deal) HasUpvoted(actorID string) bool {
	return containsID(d.Upvoters, actorID)
}

// HasDownvoted reports whether the actor is in the downvoter set.
func (d *Deal) HasDownvoted(actorID string) bool {
	return containsID(d.Downvoters, actorID)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
