package es

import "errors"

// ErrDocMissing is returned when a delete targets a document that is not in
// the index.
var ErrDocMissing = errors.New("es: document missing")

// Op constants name the index operations for error context.
const (
	OpIndex  = "index"
	OpDelete = "delete"
	OpSearch = "search"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "es " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
