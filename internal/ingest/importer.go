package ingest

import (
	"context"
	"fmt"

	"mediacatalog-backend/internal/models"
)

// RunStore opens the transactional unit of work for one import run.
type RunStore interface {
	Begin(ctx context.Context) (RunTx, error)
}

// RunTx is everything a run does inside its transaction. TruncateStaging
// and the staged rows both roll back together with the canonical upserts,
// so a failed run leaves every table exactly as it found it.
type RunTx interface {
	TruncateStaging(ctx context.Context) error
	InsertStagingBatch(ctx context.Context, recs []*models.StagingRecord) error
	MergeToCatalog(ctx context.Context) (int, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RunSummary is the only thing a successful run reports.
type RunSummary struct {
	RowsProcessed int `json:"rows_processed"`
	RowsSkipped   int `json:"rows_skipped"`
}

// Importer sequences one import run: truncate staging, stream rows into
// staging batches, merge staging into the catalog, commit. Any failure
// past Begin rolls the whole transaction back and surfaces a single
// categorized error.
type Importer struct {
	store     RunStore
	batchSize int
}

func NewImporter(store RunStore, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{store: store, batchSize: batchSize}
}

// ImportBatch drains the source and returns the merged row count. The
// caller's context is threaded through every stage; cancelling it aborts
// the run and rolls back.
func (imp *Importer) ImportBatch(ctx context.Context, src RowSource) (RunSummary, error) {
	defer src.Close()

	tx, err := imp.store.Begin(ctx)
	if err != nil {
		return RunSummary{}, newError(KindStoreFailure, fmt.Errorf("begin run: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := tx.TruncateStaging(ctx); err != nil {
		return RunSummary{}, newError(KindStoreFailure, fmt.Errorf("truncate staging: %w", err))
	}

	loader := NewLoader(tx, imp.batchSize)
	if _, err := loader.Load(ctx, src); err != nil {
		return RunSummary{}, err
	}

	processed, err := tx.MergeToCatalog(ctx)
	if err != nil {
		return RunSummary{}, newError(KindStoreFailure, fmt.Errorf("merge: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return RunSummary{}, newError(KindStoreFailure, fmt.Errorf("commit run: %w", err))
	}
	committed = true

	return RunSummary{RowsProcessed: processed, RowsSkipped: src.Skipped()}, nil
}
