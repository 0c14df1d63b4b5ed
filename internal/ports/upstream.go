package ports

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// FDASource returns the most recent openFDA enforcement reports, one raw JSON object each.
type FDASource interface {
	FetchRecalls(ctx context.Context) ([]json.RawMessage, error)
}

// SnapshotFetcher pulls the live USDA response as a JSON array document.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) ([]byte, error)
}

// SnapshotStore holds the last fetched USDA document. Save replaces the previous blob
// wholesale; Load returns ErrSnapshotNotFound when nothing was saved yet.
type SnapshotStore interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
	Location() string
}
