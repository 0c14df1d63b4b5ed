package relay

import (
	"errors"

	"recallrelay/internal/ports"
)

// ListLimit caps the rows returned by ListRecalls.
const ListLimit = 100

var (
	errRepositoryRequired = errors.New("recall repository is required")
	errFDASourceRequired  = errors.New("fda source is required")
	errFetcherRequired    = errors.New("usda snapshot fetcher is required")
	errSnapshotsRequired  = errors.New("snapshot store is required")
)

type Service struct {
	repo      ports.RecallRepository
	state     ports.SyncState
	fda       ports.FDASource
	usda      ports.SnapshotFetcher
	snapshots ports.SnapshotStore
}

// NewService wires the ingestion and read usecases. state may be nil, in which case run
// summaries are not recorded.
func NewService(
	repo ports.RecallRepository,
	state ports.SyncState,
	fda ports.FDASource,
	usda ports.SnapshotFetcher,
	snapshots ports.SnapshotStore,
) *Service {
	return &Service{
		repo:      repo,
		state:     state,
		fda:       fda,
		usda:      usda,
		snapshots: snapshots,
	}
}

// SnapshotResult describes a refreshed USDA snapshot.
type SnapshotResult struct {
	Path    string
	Bytes   int
	Records int
}
