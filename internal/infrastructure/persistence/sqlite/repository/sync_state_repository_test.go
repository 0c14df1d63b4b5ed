package repository

import (
	"context"
	"testing"
	"time"

	"recallrelay/internal/infrastructure/persistence/sqlite/model"
)

func TestSyncStateSetGet(t *testing.T) {
	store := NewSyncStateRepository(openTestDB(t))
	fixed := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "last_run:FDA"); err != nil || found {
		t.Fatalf("Get() before Set found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, "last_run:FDA", `{"inserted":3}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "last_run:FDA", `{"inserted":4}`); err != nil {
		t.Fatalf("Set(update) error = %v", err)
	}

	value, found, err := store.Get(ctx, "last_run:FDA")
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if value != `{"inserted":4}` {
		t.Fatalf("Get() value = %q", value)
	}

	var row model.SyncState
	if err := store.db.Where("key = ?", "last_run:FDA").Take(&row).Error; err != nil {
		t.Fatalf("read sync_state row: %v", err)
	}
	if row.UpdatedAt != fixed.Format(time.RFC3339Nano) {
		t.Fatalf("updated_at = %q, want %q", row.UpdatedAt, fixed.Format(time.RFC3339Nano))
	}
}

func TestSyncStateRejectsEmptyKey(t *testing.T) {
	store := NewSyncStateRepository(openTestDB(t))
	ctx := context.Background()

	if err := store.Set(ctx, " ", "v"); err == nil {
		t.Fatal("Set() expected error for empty key")
	}
	if _, _, err := store.Get(ctx, ""); err == nil {
		t.Fatal("Get() expected error for empty key")
	}
}

func TestSyncStateEnsureSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	store := NewSyncStateRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema(run %d) error = %v", i, err)
		}
	}
	if !db.Migrator().HasTable("sync_state") {
		t.Fatal("sync_state table missing")
	}
}
