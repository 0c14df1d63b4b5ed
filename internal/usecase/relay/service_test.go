package relay

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domainrecall "recallrelay/internal/domain/recall"
	sqliterepo "recallrelay/internal/infrastructure/persistence/sqlite/repository"
	"recallrelay/internal/infrastructure/snapshot"
	"recallrelay/internal/ports"
)

type stubFDA struct {
	records []json.RawMessage
	err     error
}

func (s stubFDA) FetchRecalls(context.Context) ([]json.RawMessage, error) {
	return s.records, s.err
}

type stubFetcher struct {
	data []byte
	err  error
}

func (s stubFetcher) FetchSnapshot(context.Context) ([]byte, error) {
	return s.data, s.err
}

// flakyRepo fails the upsert of one recall number and delegates everything else.
type flakyRepo struct {
	*sqliterepo.RecallRepository
	failOn string
}

func (r flakyRepo) UpsertRecall(ctx context.Context, rec domainrecall.Recall) error {
	if rec.RecallNumber == r.failOn {
		return errors.New("disk full")
	}
	return r.RecallRepository.UpsertRecall(ctx, rec)
}

type testEnv struct {
	svc   *Service
	db    *gorm.DB
	repo  *sqliterepo.RecallRepository
	state *sqliterepo.SyncStateRepository
	store *snapshot.FileStore
}

func setupEnv(t *testing.T, fda ports.FDASource, usda ports.SnapshotFetcher) testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(dir, "recalls.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := snapshot.NewFileStore(filepath.Join(dir, "recalls.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	repo := sqliterepo.NewRecallRepository(db)
	state := sqliterepo.NewSyncStateRepository(db)
	return testEnv{
		svc:   NewService(repo, state, fda, usda, store),
		db:    db,
		repo:  repo,
		state: state,
		store: store,
	}
}

func rawRecords(t *testing.T, docs ...string) []json.RawMessage {
	t.Helper()

	out := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		if !json.Valid([]byte(doc)) {
			t.Fatalf("invalid fixture: %s", doc)
		}
		out = append(out, json.RawMessage(doc))
	}
	return out
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := db.Table("reports").Count(&n).Error; err != nil {
		t.Fatalf("count reports: %v", err)
	}
	return n
}

func TestLoadFDAInsertsAndSkips(t *testing.T) {
	fda := stubFDA{records: rawRecords(t,
		`{"recall_number":"F-0001-2024","status":"Ongoing","city":"Austin","reason_for_recall":"Undeclared milk"}`,
		`{"recall_number":"","status":"Ongoing"}`,
		`{"recall_number":"F-0002-2024","classification":"Class II","address_2":""}`,
	)}
	env := setupEnv(t, fda, nil)
	ctx := context.Background()

	tally, err := env.svc.LoadFDA(ctx)
	if err != nil {
		t.Fatalf("LoadFDA() error = %v", err)
	}
	if tally.Total != 3 || tally.Inserted != 2 || tally.Skipped != 1 || tally.Errors != 0 {
		t.Fatalf("tally = %+v", tally)
	}
	if got := countRows(t, env.db); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}

	rec, err := env.svc.GetRecall(ctx, "F-0001-2024", "fda")
	if err != nil {
		t.Fatalf("GetRecall() error = %v", err)
	}
	if rec.Authority != domainrecall.AuthorityFDA {
		t.Fatalf("authority = %q", rec.Authority)
	}
	if rec.Reason == nil || *rec.Reason != "Undeclared milk" {
		t.Fatalf("reason = %v", rec.Reason)
	}

	other, err := env.svc.GetRecall(ctx, "F-0002-2024", "fda")
	if err != nil {
		t.Fatalf("GetRecall(second) error = %v", err)
	}
	if other.Address2 != nil {
		t.Fatalf("empty address_2 should be NULL, got %q", *other.Address2)
	}
}

func TestLoadFDAIsIdempotent(t *testing.T) {
	fda := stubFDA{records: rawRecords(t,
		`{"recall_number":"F-0001-2024","status":"Ongoing"}`,
		`{"recall_number":"F-0002-2024","status":"Completed"}`,
	)}
	env := setupEnv(t, fda, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		tally, err := env.svc.LoadFDA(ctx)
		if err != nil {
			t.Fatalf("LoadFDA(run %d) error = %v", i, err)
		}
		if tally.Inserted != 2 {
			t.Fatalf("run %d inserted = %d, want 2", i, tally.Inserted)
		}
	}
	if got := countRows(t, env.db); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestLoadFDAFetchFailureWritesNothing(t *testing.T) {
	env := setupEnv(t, stubFDA{err: errors.New("upstream 503")}, nil)

	if _, err := env.svc.LoadFDA(context.Background()); err == nil {
		t.Fatal("LoadFDA() expected error on fetch failure")
	}
	if env.db.Migrator().HasTable("reports") {
		if got := countRows(t, env.db); got != 0 {
			t.Fatalf("rows = %d, want 0", got)
		}
	}
}

func TestIngestCountsFailuresAndContinues(t *testing.T) {
	fda := stubFDA{records: rawRecords(t,
		`{"recall_number":"F-1"}`,
		`{"recall_number":"F-2"}`,
		`{"recall_number":"F-3"}`,
	)}
	env := setupEnv(t, fda, nil)
	env.svc.repo = flakyRepo{RecallRepository: env.repo, failOn: "F-2"}

	tally, err := env.svc.LoadFDA(context.Background())
	if err != nil {
		t.Fatalf("LoadFDA() error = %v", err)
	}
	if tally.Total != 3 || tally.Inserted != 2 || tally.Errors != 1 || tally.Skipped != 0 {
		t.Fatalf("tally = %+v", tally)
	}
	if len(tally.Failures) != 1 || tally.Failures[0].RecallNumber != "F-2" {
		t.Fatalf("failures = %+v", tally.Failures)
	}
	if got := countRows(t, env.db); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestLoadFDASkipsNonObjectRecords(t *testing.T) {
	fda := stubFDA{records: rawRecords(t,
		`{"recall_number":"F-1"}`,
		`null`,
		`"x"`,
		`["not","an","object"]`,
	)}
	env := setupEnv(t, fda, nil)

	tally, err := env.svc.LoadFDA(context.Background())
	if err != nil {
		t.Fatalf("LoadFDA() error = %v", err)
	}
	if tally.Total != 4 || tally.Inserted != 1 || tally.Errors != 0 || tally.Skipped != 3 {
		t.Fatalf("tally = %+v", tally)
	}
	if tally.Inserted+tally.Errors+tally.Skipped != tally.Total {
		t.Fatalf("tally does not add up: %+v", tally)
	}
}

func TestSyncUSDACountsNonObjectRecordsAsErrors(t *testing.T) {
	doc := `[{"field_recall_number":"001-2024","langcode":"English"}, null, "x"]`
	env := setupEnv(t, nil, nil)
	ctx := context.Background()

	if err := env.store.Save(ctx, []byte(doc)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tally, err := env.svc.SyncUSDA(ctx)
	if err != nil {
		t.Fatalf("SyncUSDA() error = %v", err)
	}
	if tally.Total != 3 || tally.Inserted != 1 || tally.Errors != 2 || tally.Skipped != 0 {
		t.Fatalf("tally = %+v", tally)
	}
	for _, f := range tally.Failures {
		if f.RecallNumber != "" {
			t.Fatalf("failure recall number = %q, want empty", f.RecallNumber)
		}
	}
}

func TestSyncUSDARejectsNonArraySnapshot(t *testing.T) {
	for _, doc := range []string{`null`, `{"data":[]}`, `"x"`, ``} {
		env := setupEnv(t, nil, nil)
		ctx := context.Background()

		if err := env.store.Save(ctx, []byte(doc)); err != nil {
			t.Fatalf("Save(%q) error = %v", doc, err)
		}
		if _, err := env.svc.SyncUSDA(ctx); !errors.Is(err, errSnapshotNotArray) {
			t.Fatalf("SyncUSDA(%q) error = %v, want errSnapshotNotArray", doc, err)
		}
		if env.db.Migrator().HasTable("reports") {
			t.Fatalf("SyncUSDA(%q) must fail before touching the store", doc)
		}
	}
}

func TestIngestStopsOnCanceledContext(t *testing.T) {
	env := setupEnv(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	decode := func(raw json.RawMessage) (domainrecall.Recall, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return domainrecall.DecodeFDA(raw)
	}

	records := rawRecords(t, `{"recall_number":"F-1"}`, `{"recall_number":"F-2"}`, `{"recall_number":"F-3"}`)
	tally, err := env.svc.ingest(ctx, domainrecall.AuthorityFDA, records, decode)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ingest() error = %v, want context.Canceled", err)
	}
	if tally.Total != 2 || tally.Inserted != 1 || tally.Errors != 1 {
		t.Fatalf("partial tally = %+v", tally)
	}
}

func TestRefreshThenSyncUSDA(t *testing.T) {
	doc := `[
		{"field_recall_number":"001-2024","langcode":"English","field_recall_date":"2024-03-05","field_closed_date":"","field_title":"Acme Meats"},
		{"field_recall_number":"001-2024","langcode":"Spanish","field_title":"Carnes Acme"},
		{"field_recall_number":"","langcode":"English"},
		{"field_recall_number":"002-2024","langcode":"English","field_recall_date":"2024-04-01"}
	]`
	env := setupEnv(t, nil, stubFetcher{data: []byte(doc)})
	ctx := context.Background()

	if _, err := env.svc.SyncUSDA(ctx); !errors.Is(err, ports.ErrSnapshotNotFound) {
		t.Fatalf("SyncUSDA() before refresh error = %v, want ErrSnapshotNotFound", err)
	}

	res, err := env.svc.RefreshUSDASnapshot(ctx)
	if err != nil {
		t.Fatalf("RefreshUSDASnapshot() error = %v", err)
	}
	if res.Records != 4 || res.Bytes != len(doc) {
		t.Fatalf("snapshot result = %+v", res)
	}
	if res.Path != env.store.Location() {
		t.Fatalf("path = %q, want %q", res.Path, env.store.Location())
	}
	if env.db.Migrator().HasTable("reports") {
		t.Fatal("refresh must not touch the store")
	}

	tally, err := env.svc.SyncUSDA(ctx)
	if err != nil {
		t.Fatalf("SyncUSDA() error = %v", err)
	}
	if tally.Total != 4 || tally.Inserted != 2 || tally.Skipped != 2 {
		t.Fatalf("tally = %+v", tally)
	}

	rec, err := env.svc.GetRecall(ctx, "001-2024", "usda")
	if err != nil {
		t.Fatalf("GetRecall() error = %v", err)
	}
	if rec.CenterClassificationDate == nil || *rec.CenterClassificationDate != "20240305" {
		t.Fatalf("recall date = %v, want 20240305", rec.CenterClassificationDate)
	}
	if rec.TerminationDate != nil {
		t.Fatalf("closed date = %q, want NULL", *rec.TerminationDate)
	}
	if rec.RecallingFirm == nil || *rec.RecallingFirm != "Acme Meats" {
		t.Fatalf("firm = %v, want English title", rec.RecallingFirm)
	}
}

func TestRefreshRejectsNonArraySnapshot(t *testing.T) {
	env := setupEnv(t, nil, stubFetcher{data: []byte(`{"error":"maintenance"}`)})

	if _, err := env.svc.RefreshUSDASnapshot(context.Background()); err == nil {
		t.Fatal("RefreshUSDASnapshot() expected error for non-array document")
	}
	if _, err := env.store.Load(context.Background()); !errors.Is(err, ports.ErrSnapshotNotFound) {
		t.Fatalf("snapshot should not be written, Load() error = %v", err)
	}
}

func TestListRecallsBySource(t *testing.T) {
	fda := stubFDA{records: rawRecords(t, `{"recall_number":"F-1"}`)}
	usda := stubFetcher{data: []byte(`[{"field_recall_number":"010-2024","langcode":"English"}]`)}
	env := setupEnv(t, fda, usda)
	ctx := context.Background()

	if _, err := env.svc.LoadFDA(ctx); err != nil {
		t.Fatalf("LoadFDA() error = %v", err)
	}
	if _, err := env.svc.RefreshUSDASnapshot(ctx); err != nil {
		t.Fatalf("RefreshUSDASnapshot() error = %v", err)
	}
	if _, err := env.svc.SyncUSDA(ctx); err != nil {
		t.Fatalf("SyncUSDA() error = %v", err)
	}

	items, err := env.svc.ListRecalls(ctx, "")
	if err != nil {
		t.Fatalf("ListRecalls(default) error = %v", err)
	}
	if len(items) != 1 || items[0].RecallNumber != "010-2024" {
		t.Fatalf("default source items = %+v", items)
	}

	items, err = env.svc.ListRecalls(ctx, "fda")
	if err != nil {
		t.Fatalf("ListRecalls(fda) error = %v", err)
	}
	if len(items) != 1 || items[0].RecallNumber != "F-1" {
		t.Fatalf("fda items = %+v", items)
	}

	if _, err := env.svc.ListRecalls(ctx, "cpsc"); !errors.Is(err, domainrecall.ErrUnknownSource) {
		t.Fatalf("ListRecalls(cpsc) error = %v, want ErrUnknownSource", err)
	}
	if _, err := env.svc.GetRecall(ctx, "F-1", "usda"); !errors.Is(err, ports.ErrRecallNotFound) {
		t.Fatalf("GetRecall(wrong source) error = %v, want ErrRecallNotFound", err)
	}
	if _, err := env.svc.GetRecall(ctx, "  ", "fda"); !errors.Is(err, ports.ErrRecallNotFound) {
		t.Fatalf("GetRecall(blank) error = %v, want ErrRecallNotFound", err)
	}
}

func TestLastRunsRecordsEachAuthority(t *testing.T) {
	fda := stubFDA{records: rawRecords(t, `{"recall_number":"F-1"}`, `{"recall_number":""}`)}
	env := setupEnv(t, fda, nil)
	ctx := context.Background()

	runs, err := env.svc.LastRuns(ctx)
	if err != nil {
		t.Fatalf("LastRuns(empty) error = %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("runs before any load = %+v", runs)
	}

	if _, err := env.svc.LoadFDA(ctx); err != nil {
		t.Fatalf("LoadFDA() error = %v", err)
	}

	runs, err = env.svc.LastRuns(ctx)
	if err != nil {
		t.Fatalf("LastRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %+v, want one", runs)
	}
	got := runs[0]
	if got.Authority != domainrecall.AuthorityFDA || got.Total != 2 || got.Inserted != 1 || got.Skipped != 1 {
		t.Fatalf("summary = %+v", got)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("finished_at not recorded")
	}
}

func TestServiceRequiresDependencies(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.LoadFDA(ctx); err == nil || !strings.Contains(err.Error(), "repository") {
		t.Fatalf("LoadFDA() error = %v", err)
	}
	if _, err := svc.RefreshUSDASnapshot(ctx); err == nil {
		t.Fatal("RefreshUSDASnapshot() expected error without fetcher")
	}
	if _, err := svc.SyncUSDA(ctx); err == nil {
		t.Fatal("SyncUSDA() expected error without repository")
	}
	runs, err := svc.LastRuns(ctx)
	if err != nil || runs != nil {
		t.Fatalf("LastRuns() without state = %v, %v", runs, err)
	}
}
