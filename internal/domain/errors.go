package domain

import "errors"

var (
	// ErrNotFound signals a missing deal.
	ErrNotFound = errors.New("deal not found")
	// ErrCategoryNotFound signals a missing category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrForbidden signals an actor acting on a deal they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyVoted signals a repeated vote in the same direction. The
	// pre-existing state already satisfies the caller, so transports report
	// it as "not modified" rather than a hard failure.
	ErrAlreadyVoted = errors.New("already voted")
	// ErrValidation signals malformed input or a patch outside the whitelist.
	ErrValidation = errors.New("validation failed")
	// ErrIndexWrite signals a failed search-index write or delete.
	ErrIndexWrite = errors.New("index write failed")
	// ErrSearchBackend signals a failed search query execution.
	ErrSearchBackend = errors.New("search backend error")
)
