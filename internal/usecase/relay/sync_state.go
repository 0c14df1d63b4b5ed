package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"recallrelay/internal/bootstrap/logging"
	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
)

// RunSummary is the recorded outcome of the last ingestion run for one authority.
type RunSummary struct {
	Authority  string    `json:"authority"`
	Total      int       `json:"total"`
	Inserted   int       `json:"inserted"`
	Errors     int       `json:"errors"`
	Skipped    int       `json:"skipped"`
	FinishedAt time.Time `json:"finished_at"`
}

func lastRunKey(authority string) string {
	return "last_run:" + authority
}

// recordRun stores the run summary. It never fails the run.
func (s *Service) recordRun(ctx context.Context, authority string, tally domainrecall.Tally) {
	if s.state == nil {
		return
	}

	raw, err := json.Marshal(RunSummary{
		Authority:  authority,
		Total:      tally.Total,
		Inserted:   tally.Inserted,
		Errors:     tally.Errors,
		Skipped:    tally.Skipped,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		logging.Warn(ctx, "encode run summary failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	if err := s.state.Set(ctx, lastRunKey(authority), string(raw)); err != nil {
		logging.Warn(ctx, "record run summary failed", slog.Any("err", errs.Loggable(err)))
	}
}

// LastRuns returns the recorded summaries, FDA first. Authorities that never ran are
// left out.
func (s *Service) LastRuns(ctx context.Context) ([]RunSummary, error) {
	if s.state == nil {
		return nil, nil
	}

	out := make([]RunSummary, 0, 2)
	for _, authority := range []string{domainrecall.AuthorityFDA, domainrecall.AuthorityUSDA} {
		raw, found, err := s.state.Get(ctx, lastRunKey(authority))
		if err != nil {
			return nil, errs.Wrapf(err, "read last run of %s", authority)
		}
		if !found {
			continue
		}

		var summary RunSummary
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			return nil, errs.Wrapf(err, "decode last run of %s", authority)
		}
		out = append(out, summary)
	}
	return out, nil
}
