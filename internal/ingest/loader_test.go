package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mediacatalog-backend/internal/models"
)

// sliceSource yields pre-built rows, mimicking a parsed feed.
type sliceSource struct {
	rows []map[string]interface{}
	pos  int
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Row() map[string]interface{} { return s.rows[s.pos-1] }
func (s *sliceSource) Skipped() int                { return 0 }
func (s *sliceSource) Err() error                  { return nil }
func (s *sliceSource) Close() error                { return nil }

// recordingWriter captures batch sizes and detects overlapping inserts.
type recordingWriter struct {
	batchSizes []int
	inFlight   bool
	overlapped bool
	failOn     int // 1-based call number to fail on, 0 = never
	calls      int
}

func (w *recordingWriter) InsertStagingBatch(ctx context.Context, recs []*models.StagingRecord) error {
	if w.inFlight {
		w.overlapped = true
	}
	w.inFlight = true
	defer func() { w.inFlight = false }()

	w.calls++
	if w.failOn != 0 && w.calls == w.failOn {
		return errors.New("disk full")
	}
	w.batchSizes = append(w.batchSizes, len(recs))
	return nil
}

func makeRows(n int) []map[string]interface{} {
	rows := make([]map[string]interface{}, n)
	for i := range rows {
		rows[i] = map[string]interface{}{
			"external_id": fmt.Sprintf("item-%d", i),
			"title":       fmt.Sprintf("Title %d", i),
		}
	}
	return rows
}

func TestLoaderBatchBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		batchSize int
		want      []int
	}{
		{"exact multiple", 1000, 250, []int{250, 250, 250, 250}},
		{"final partial batch", 1001, 250, []int{250, 250, 250, 250, 1}},
		{"fewer rows than one batch", 7, 250, []int{7}},
		{"empty source", 0, 250, nil},
		{"batch of one", 3, 1, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWriter{}
			loader := NewLoader(w, tt.batchSize)

			loaded, err := loader.Load(context.Background(), &sliceSource{rows: makeRows(tt.rows)})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if loaded != tt.rows {
				t.Errorf("loaded = %d, want %d", loaded, tt.rows)
			}
			if len(w.batchSizes) != len(tt.want) {
				t.Fatalf("insert calls = %v, want %v", w.batchSizes, tt.want)
			}
			for i, n := range tt.want {
				if w.batchSizes[i] != n {
					t.Errorf("batch %d size = %d, want %d", i, w.batchSizes[i], n)
				}
			}
		})
	}
}

func TestLoaderSingleInFlightInsert(t *testing.T) {
	w := &recordingWriter{}
	loader := NewLoader(w, 500)

	if _, err := loader.Load(context.Background(), &sliceSource{rows: makeRows(10000)}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.overlapped {
		t.Error("observed overlapping staging inserts")
	}
	if len(w.batchSizes) != 20 {
		t.Errorf("insert calls = %d, want 20", len(w.batchSizes))
	}
}

func TestLoaderStoreFailure(t *testing.T) {
	w := &recordingWriter{failOn: 2}
	loader := NewLoader(w, 10)

	loaded, err := loader.Load(context.Background(), &sliceSource{rows: makeRows(100)})
	if err == nil {
		t.Fatal("expected error")
	}
	var ingErr *Error
	if !errors.As(err, &ingErr) || ingErr.Kind != KindStoreFailure {
		t.Errorf("expected store failure kind, got %v", err)
	}
	if loaded != 10 {
		t.Errorf("loaded = %d, want 10", loaded)
	}
}

func TestLoaderContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &recordingWriter{}
	loader := NewLoader(w, 10)

	_, err := loader.Load(ctx, &sliceSource{rows: makeRows(5)})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if len(w.batchSizes) != 0 {
		t.Errorf("expected no inserts after cancellation, got %v", w.batchSizes)
	}
}
