package relay

import (
	"context"
	"errors"

	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
)

// LoadFDA pulls the latest openFDA enforcement reports and upserts them. A fetch failure
// aborts the run before any record is written.
func (s *Service) LoadFDA(ctx context.Context) (domainrecall.Tally, error) {
	if ctx == nil {
		return domainrecall.Tally{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return domainrecall.Tally{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return domainrecall.Tally{}, errRepositoryRequired
	}
	if s.fda == nil {
		return domainrecall.Tally{}, errFDASourceRequired
	}

	records, err := s.fda.FetchRecalls(ctx)
	if err != nil {
		return domainrecall.Tally{}, err
	}

	return s.ingest(ctx, domainrecall.AuthorityFDA, records, domainrecall.DecodeFDA)
}
