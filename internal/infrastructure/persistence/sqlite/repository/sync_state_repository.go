package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recallrelay/internal/errs"
	"recallrelay/internal/infrastructure/persistence/sqlite/model"
	"recallrelay/internal/ports"
)

type SyncStateRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ports.SyncState = (*SyncStateRepository)(nil)

func NewSyncStateRepository(db *gorm.DB) *SyncStateRepository {
	return &SyncStateRepository{db: db, now: time.Now}
}

func (s *SyncStateRepository) EnsureSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return ensureTable(s.db.WithContext(ctx), &model.SyncState{})
}

func (s *SyncStateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	row, found, err := s.take(ctx, key)
	if err != nil || !found {
		return "", found, err
	}
	return row.Value, true, nil
}

func (s *SyncStateRepository) Set(ctx context.Context, key string, value string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	db := s.db.WithContext(ctx)
	if err := ensureTable(db, &model.SyncState{}); err != nil {
		return errs.Wrap(err, "ensure sync_state table")
	}

	row := model.SyncState{
		Key:       trimmedKey,
		Value:     value,
		UpdatedAt: s.now().UTC().Format(time.RFC3339Nano),
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert sync state")
	}

	return nil
}

func (s *SyncStateRepository) take(ctx context.Context, key string) (model.SyncState, bool, error) {
	if ctx == nil {
		return model.SyncState{}, false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return model.SyncState{}, false, errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return model.SyncState{}, false, errors.New("key is required")
	}

	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(&model.SyncState{}) {
		return model.SyncState{}, false, nil
	}

	var row model.SyncState
	if err := db.Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.SyncState{}, false, nil
		}
		return model.SyncState{}, false, errs.Wrap(err, "query sync state by key")
	}
	return row, true, nil
}
