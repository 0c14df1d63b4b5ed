package ports

import (
	"context"
	"errors"

	domainrecall "recallrelay/internal/domain/recall"
)

var ErrRecallNotFound = errors.New("recall not found")

type RecallFilter struct {
	Authority string
	Limit     int
}

type RecallReadRepository interface {
	ListRecalls(ctx context.Context, filter RecallFilter) ([]domainrecall.Recall, error)
	GetRecall(ctx context.Context, recallNumber string, authority string) (domainrecall.Recall, error)
}

type RecallRepository interface {
	RecallReadRepository
	// EnsureSchema creates the recall table when missing. Safe to call on every run.
	EnsureSchema(ctx context.Context) error
	// UpsertRecall inserts the row or replaces every column of the row with the same
	// recall number.
	UpsertRecall(ctx context.Context, recall domainrecall.Recall) error
}
