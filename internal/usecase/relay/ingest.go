package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"recallrelay/internal/bootstrap/logging"
	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
)

// decodeFunc turns one raw element into a row. Skip errors (domainrecall.IsSkip) are
// counted as skipped, any other error as a failure.
type decodeFunc func(json.RawMessage) (domainrecall.Recall, error)

// ingest ensures the table, then folds every record into the tally one at a time. A
// record failure is counted and the loop moves on; earlier upserts are never undone.
// Only a schema failure or a canceled context ends the run early, and the partial
// tally is returned with the error.
func (s *Service) ingest(ctx context.Context, authority string, records []json.RawMessage, decode decodeFunc) (domainrecall.Tally, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.relay"), slog.String("authority", authority))

	if err := s.repo.EnsureSchema(ctx); err != nil {
		return domainrecall.Tally{}, errs.Wrap(err, "ensure recall table")
	}

	var tally domainrecall.Tally
	for i, raw := range records {
		if err := ctx.Err(); err != nil {
			logging.Warn(logCtx, "ingest interrupted", slog.Int("processed", i), slog.Int("total", len(records)))
			return tally, errs.Wrap(err, "ingest interrupted")
		}

		rec, err := decode(raw)
		if err != nil {
			if domainrecall.IsSkip(err) {
				tally.Skip()
				logging.Warn(logCtx, "record skipped", slog.Int("index", i), slog.String("reason", err.Error()))
				continue
			}
			tally.Fail("", err)
			logging.Error(logCtx, "record rejected", slog.Int("index", i), slog.Any("err", errs.Loggable(err)))
			continue
		}

		if err := s.repo.UpsertRecall(ctx, rec); err != nil {
			tally.Fail(rec.RecallNumber, err)
			logging.Error(
				logCtx,
				"error inserting recall",
				slog.String("recall_number", rec.RecallNumber),
				slog.Any("err", errs.Loggable(err)),
			)
			continue
		}
		tally.Insert()
	}

	logging.Info(
		logCtx,
		"ingest finished",
		slog.Int("total", tally.Total),
		slog.Int("inserted", tally.Inserted),
		slog.Int("errors", tally.Errors),
		slog.Int("skipped", tally.Skipped),
	)
	s.recordRun(logCtx, authority, tally)
	return tally, nil
}
