package relay

import (
	"context"
	"errors"
	"strings"

	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
	"recallrelay/internal/ports"
)

// ListRecalls returns up to ListLimit rows for a read-side source identifier
// ("fsis" when empty).
func (s *Service) ListRecalls(ctx context.Context, source string) ([]domainrecall.Recall, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errRepositoryRequired
	}

	authority, err := domainrecall.AuthorityForSource(source)
	if err != nil {
		return nil, err
	}

	return s.repo.ListRecalls(ctx, ports.RecallFilter{
		Authority: authority,
		Limit:     ListLimit,
	})
}

// GetRecall returns one row or ports.ErrRecallNotFound.
func (s *Service) GetRecall(ctx context.Context, recallNumber string, source string) (domainrecall.Recall, error) {
	if ctx == nil {
		return domainrecall.Recall{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return domainrecall.Recall{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return domainrecall.Recall{}, errRepositoryRequired
	}

	recallNumber = strings.TrimSpace(recallNumber)
	if recallNumber == "" {
		return domainrecall.Recall{}, ports.ErrRecallNotFound
	}

	authority, err := domainrecall.AuthorityForSource(source)
	if err != nil {
		return domainrecall.Recall{}, err
	}

	return s.repo.GetRecall(ctx, recallNumber, authority)
}
