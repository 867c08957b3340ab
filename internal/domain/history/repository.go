package history

import (
	"context"
)

// Repository defines persistence operations for history entries.
type Repository interface {
	// Save persists an entry. Saving an entry whose event ID already exists is a no-op.
	Save(ctx context.Context, entry *Entry) error

	// ListRecent returns entries newest first, optionally filtered by kind.
	ListRecent(ctx context.Context, kind Kind, page, limit int) ([]*Entry, int64, error)

	// CountByKind returns entry counts grouped by kind.
	CountByKind(ctx context.Context) (map[string]int64, error)

	// TopQueries returns the most frequent search queries.
	TopQueries(ctx context.Context, limit int) ([]QueryCount, error)
}

// QueryCount is a search query and how often it was issued.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
