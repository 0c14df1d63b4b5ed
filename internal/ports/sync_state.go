package ports

import "context"

// SyncState is a small key-value capability used to remember the outcome of the last
// ingestion run per authority.
type SyncState interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
}
