package domain

import (
	"strings"
	"time"
)

// Category is a node in the category tree, referenced by deals through its
// path. Tag-flagged categories are created lazily when a deal references an
// unknown tag path.
type Category struct {
	ID        string
	Path      string // unique, e.g. "/computers/monitors"
	Parent    string
	Names     map[string]string // locale -> display name
	IsTag     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTag builds a tag category for an unknown tag path with the default
// English name derived from the last path segment.
func NewTag(path string) Category {
	name := strings.TrimPrefix(path, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return Category{
		Path:   path,
		Parent: "/",
		Names:  map[string]string{"en": name},
		IsTag:  true,
	}
}
