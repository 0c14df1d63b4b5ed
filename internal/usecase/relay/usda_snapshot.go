package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"recallrelay/internal/bootstrap/logging"
	domainrecall "recallrelay/internal/domain/recall"
	"recallrelay/internal/errs"
)

// RefreshUSDASnapshot fetches the live FSIS list and replaces the local snapshot. It does
// not touch the store; SyncUSDA loads the snapshot later.
func (s *Service) RefreshUSDASnapshot(ctx context.Context) (SnapshotResult, error) {
	if ctx == nil {
		return SnapshotResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SnapshotResult{}, errs.Wrap(err, "check context")
	}
	if s.usda == nil {
		return SnapshotResult{}, errFetcherRequired
	}
	if s.snapshots == nil {
		return SnapshotResult{}, errSnapshotsRequired
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.relay"), slog.String("authority", domainrecall.AuthorityUSDA))
	logging.Info(logCtx, "loading usda recalls to file", slog.String("path", s.snapshots.Location()))

	data, err := s.usda.FetchSnapshot(ctx)
	if err != nil {
		return SnapshotResult{}, err
	}

	records, err := decodeRecords(data)
	if err != nil {
		return SnapshotResult{}, errs.Wrap(err, "validate usda snapshot")
	}

	if err := s.snapshots.Save(ctx, data); err != nil {
		return SnapshotResult{}, errs.Wrap(err, "save usda snapshot")
	}

	out := SnapshotResult{
		Path:    s.snapshots.Location(),
		Bytes:   len(data),
		Records: len(records),
	}
	logging.Info(logCtx, "usda snapshot written", slog.String("path", out.Path), slog.Int("records", out.Records), slog.Int("bytes", out.Bytes))
	return out, nil
}

// SyncUSDA upserts the records of the current snapshot. A missing or unreadable snapshot
// fails the run before any record is written.
func (s *Service) SyncUSDA(ctx context.Context) (domainrecall.Tally, error) {
	if ctx == nil {
		return domainrecall.Tally{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return domainrecall.Tally{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return domainrecall.Tally{}, errRepositoryRequired
	}
	if s.snapshots == nil {
		return domainrecall.Tally{}, errSnapshotsRequired
	}

	data, err := s.snapshots.Load(ctx)
	if err != nil {
		return domainrecall.Tally{}, errs.Wrap(err, "load usda snapshot")
	}

	records, err := decodeRecords(data)
	if err != nil {
		return domainrecall.Tally{}, errs.Wrap(err, "decode usda snapshot")
	}

	return s.ingest(ctx, domainrecall.AuthorityUSDA, records, domainrecall.DecodeUSDA)
}

var errSnapshotNotArray = errors.New("usda snapshot is not a JSON array")

// decodeRecords splits a snapshot into its elements. Anything but a JSON array, null
// included, is rejected.
func decodeRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errSnapshotNotArray
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}
