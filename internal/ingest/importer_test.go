package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mediacatalog-backend/internal/models"
)

type fakeRunStore struct {
	tx       *fakeRunTx
	beginErr error
}

func (s *fakeRunStore) Begin(ctx context.Context) (RunTx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.tx, nil
}

// fakeRunTx records the order of every call so tests can assert the run
// sequence, not just the end state.
type fakeRunTx struct {
	calls       []string
	staged      int
	mergeCount  int
	truncateErr error
	insertErr   error
	mergeErr    error
	commitErr   error
}

func (tx *fakeRunTx) TruncateStaging(ctx context.Context) error {
	tx.calls = append(tx.calls, "truncate")
	return tx.truncateErr
}

func (tx *fakeRunTx) InsertStagingBatch(ctx context.Context, recs []*models.StagingRecord) error {
	tx.calls = append(tx.calls, "insert")
	if tx.insertErr != nil {
		return tx.insertErr
	}
	tx.staged += len(recs)
	return nil
}

func (tx *fakeRunTx) MergeToCatalog(ctx context.Context) (int, error) {
	tx.calls = append(tx.calls, "merge")
	if tx.mergeErr != nil {
		return 0, tx.mergeErr
	}
	if tx.mergeCount != 0 {
		return tx.mergeCount, nil
	}
	return tx.staged, nil
}

func (tx *fakeRunTx) Commit(ctx context.Context) error {
	tx.calls = append(tx.calls, "commit")
	return tx.commitErr
}

func (tx *fakeRunTx) Rollback(ctx context.Context) error {
	tx.calls = append(tx.calls, "rollback")
	return nil
}

// skippingSource wraps sliceSource with a fixed skipped count.
type skippingSource struct {
	sliceSource
	skipped int
	closed  bool
}

func (s *skippingSource) Skipped() int { return s.skipped }
func (s *skippingSource) Close() error {
	s.closed = true
	return nil
}

func TestImporterRunSequence(t *testing.T) {
	tx := &fakeRunTx{}
	imp := NewImporter(&fakeRunStore{tx: tx}, 2)
	src := &skippingSource{sliceSource: sliceSource{rows: makeRows(5)}, skipped: 3}

	summary, err := imp.ImportBatch(context.Background(), src)
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}

	want := []string{"truncate", "insert", "insert", "insert", "merge", "commit"}
	if len(tx.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", tx.calls, want)
	}
	for i, c := range want {
		if tx.calls[i] != c {
			t.Fatalf("calls = %v, want %v", tx.calls, want)
		}
	}
	if summary.RowsProcessed != 5 {
		t.Errorf("RowsProcessed = %d, want 5", summary.RowsProcessed)
	}
	if summary.RowsSkipped != 3 {
		t.Errorf("RowsSkipped = %d, want 3", summary.RowsSkipped)
	}
	if !src.closed {
		t.Error("source was not closed")
	}
}

func TestImporterRollsBackOnMergeFailure(t *testing.T) {
	tx := &fakeRunTx{mergeErr: errors.New("constraint violation")}
	imp := NewImporter(&fakeRunStore{tx: tx}, 10)
	src := &skippingSource{sliceSource: sliceSource{rows: makeRows(3)}}

	_, err := imp.ImportBatch(context.Background(), src)
	if err == nil {
		t.Fatal("expected error")
	}
	var ingErr *Error
	if !errors.As(err, &ingErr) || ingErr.Kind != KindStoreFailure {
		t.Errorf("expected store failure kind, got %v", err)
	}

	last := tx.calls[len(tx.calls)-1]
	if last != "rollback" {
		t.Errorf("last call = %q, want rollback", last)
	}
	for _, c := range tx.calls {
		if c == "commit" {
			t.Error("commit must not run after a merge failure")
		}
	}
}

func TestImporterRollsBackOnInsertFailure(t *testing.T) {
	tx := &fakeRunTx{insertErr: errors.New("connection reset")}
	imp := NewImporter(&fakeRunStore{tx: tx}, 10)
	src := &skippingSource{sliceSource: sliceSource{rows: makeRows(3)}}

	_, err := imp.ImportBatch(context.Background(), src)
	if err == nil {
		t.Fatal("expected error")
	}

	last := tx.calls[len(tx.calls)-1]
	if last != "rollback" {
		t.Errorf("last call = %q, want rollback", last)
	}
	for _, c := range tx.calls {
		if c == "merge" || c == "commit" {
			t.Errorf("%s must not run after an insert failure", c)
		}
	}
}

func TestImporterBeginFailure(t *testing.T) {
	imp := NewImporter(&fakeRunStore{beginErr: errors.New("pool exhausted")}, 10)
	src := &skippingSource{sliceSource: sliceSource{rows: makeRows(1)}}

	_, err := imp.ImportBatch(context.Background(), src)
	if err == nil {
		t.Fatal("expected error")
	}
	var ingErr *Error
	if !errors.As(err, &ingErr) || ingErr.Kind != KindStoreFailure {
		t.Errorf("expected store failure kind, got %v", err)
	}
	if !src.closed {
		t.Error("source must be closed even when Begin fails")
	}
}

// keyedStore materializes merges into an in-memory catalog keyed by
// external_id, mirroring the on-conflict upsert. The catalog outlives
// individual runs; staging is reset by TruncateStaging like the real table.
type keyedStore struct {
	tx *keyedTx
}

func (s *keyedStore) Begin(ctx context.Context) (RunTx, error) { return s.tx, nil }

type keyedTx struct {
	staged  []*models.StagingRecord
	catalog map[string]*models.MediaItem
}

func (tx *keyedTx) TruncateStaging(ctx context.Context) error {
	tx.staged = nil
	return nil
}

func (tx *keyedTx) InsertStagingBatch(ctx context.Context, recs []*models.StagingRecord) error {
	tx.staged = append(tx.staged, recs...)
	return nil
}

func (tx *keyedTx) MergeToCatalog(ctx context.Context) (int, error) {
	for _, rec := range tx.staged {
		item := ConvertRow(rec)
		tx.catalog[item.ExternalID] = item
	}
	return len(tx.staged), nil
}

func (tx *keyedTx) Commit(ctx context.Context) error   { return nil }
func (tx *keyedTx) Rollback(ctx context.Context) error { return nil }

func TestImportBatchReplacesByExternalID(t *testing.T) {
	tx := &keyedTx{catalog: make(map[string]*models.MediaItem)}
	imp := NewImporter(&keyedStore{tx: tx}, 10)

	runs := []string{"One", "Two"}
	for _, title := range runs {
		src := &skippingSource{sliceSource: sliceSource{rows: []map[string]interface{}{
			{"external_id": "x", "title": title},
		}}}
		if _, err := imp.ImportBatch(context.Background(), src); err != nil {
			t.Fatalf("ImportBatch(%s): %v", title, err)
		}
	}

	if len(tx.catalog) != 1 {
		t.Fatalf("catalog size = %d, want 1", len(tx.catalog))
	}
	item := tx.catalog["x"]
	if item == nil || item.Title == nil || *item.Title != "Two" {
		t.Errorf("expected latest title Two, got %v", item)
	}
}

func TestImportBatchRepeatedRunIsNoOp(t *testing.T) {
	tx := &keyedTx{catalog: make(map[string]*models.MediaItem)}
	imp := NewImporter(&keyedStore{tx: tx}, 10)

	rows := []map[string]interface{}{
		{"external_id": "x1", "title": "Pilot", "countries": "US,CA", "season_number": "1"},
		{"external_id": "x2", "title": "Finale", "cbs$SeriesTitle": "Show"},
	}

	if _, err := imp.ImportBatch(context.Background(), &skippingSource{sliceSource: sliceSource{rows: rows}}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := make(map[string]*models.MediaItem, len(tx.catalog))
	for k, v := range tx.catalog {
		first[k] = v
	}

	if _, err := imp.ImportBatch(context.Background(), &skippingSource{sliceSource: sliceSource{rows: rows}}); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(tx.catalog) != len(first) {
		t.Fatalf("catalog size changed: %d -> %d", len(first), len(tx.catalog))
	}
	for id, before := range first {
		after := tx.catalog[id]
		if after == nil {
			t.Fatalf("item %s disappeared on re-import", id)
		}
		if !reflect.DeepEqual(before, after) {
			t.Errorf("item %s changed on re-import:\nbefore %+v\nafter  %+v", id, before, after)
		}
	}
}

func TestImporterNoCommitOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx := &fakeRunTx{}
	imp := NewImporter(&fakeRunStore{tx: tx}, 10)
	src := &skippingSource{sliceSource: sliceSource{rows: makeRows(3)}}

	_, err := imp.ImportBatch(ctx, src)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, c := range tx.calls {
		if c == "commit" {
			t.Error("commit must not run after cancellation")
		}
	}
	if tx.calls[len(tx.calls)-1] != "rollback" {
		t.Errorf("last call = %q, want rollback", tx.calls[len(tx.calls)-1])
	}
}
