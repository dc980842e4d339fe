package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediacatalog-backend/internal/models"
)

type ImportJobRepo struct {
	pool *pgxpool.Pool
}

func NewImportJobRepo(pool *pgxpool.Pool) *ImportJobRepo {
	return &ImportJobRepo{pool: pool}
}

func (r *ImportJobRepo) Create(ctx context.Context, j *models.ImportJob) error {
	j.ID = uuid.New()
	j.Status = "pending"

	query := `INSERT INTO import_jobs (id, type, status, file_path)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, j.ID, j.Type, j.Status, j.FilePath).Scan(&j.CreatedAt)
}

func (r *ImportJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	j := &models.ImportJob{}
	query := `SELECT id, type, status, file_path, rows_processed, rows_skipped,
		error_code, error_message, created_at, completed_at
		FROM import_jobs WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.Type, &j.Status, &j.FilePath, &j.RowsProcessed,
		&j.RowsSkipped, &j.ErrorCode, &j.ErrorMessage, &j.CreatedAt,
		&j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *ImportJobRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE import_jobs SET status = 'processing' WHERE id = $1", id)
	return err
}

func (r *ImportJobRepo) MarkCompleted(ctx context.Context, id uuid.UUID, processed, skipped int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE import_jobs SET status = 'completed', rows_processed = $1,
			rows_skipped = $2, completed_at = $3 WHERE id = $4`,
		processed, skipped, time.Now(), id,
	)
	return err
}

func (r *ImportJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, code, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE import_jobs SET status = 'failed', error_code = $1,
			error_message = $2, completed_at = $3 WHERE id = $4`,
		code, message, time.Now(), id,
	)
	return err
}
