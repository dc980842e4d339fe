package ingest

import (
	"context"
	"fmt"

	"mediacatalog-backend/internal/models"
)

// DefaultBatchSize bounds how many reshaped rows are buffered between
// staging inserts.
const DefaultBatchSize = 250

// StagingWriter is the loader's view of the staging area. The insert must
// complete before it returns; the loader issues the next one only after
// that, so there is exactly one in-flight insert at any time.
type StagingWriter interface {
	InsertStagingBatch(ctx context.Context, recs []*models.StagingRecord) error
}

// Loader pulls rows from a source, reshapes them, and flushes fixed-size
// batches into staging. The final partial batch is flushed at end of
// stream.
type Loader struct {
	store     StagingWriter
	batchSize int
}

func NewLoader(store StagingWriter, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{store: store, batchSize: batchSize}
}

// Load drains the source and returns the number of rows staged.
func (l *Loader) Load(ctx context.Context, src RowSource) (int, error) {
	batch := make([]*models.StagingRecord, 0, l.batchSize)
	loaded := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.store.InsertStagingBatch(ctx, batch); err != nil {
			return newError(KindStoreFailure, fmt.Errorf("staging batch insert: %w", err))
		}
		loaded += len(batch)
		batch = batch[:0]
		return nil
	}

	for src.Next() {
		if err := ctx.Err(); err != nil {
			return loaded, newError(KindStoreFailure, err)
		}
		batch = append(batch, Reshape(src.Row()))
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
	}
	if err := src.Err(); err != nil {
		return loaded, err
	}
	if err := flush(); err != nil {
		return loaded, err
	}
	return loaded, nil
}
