package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediacatalog-backend/internal/ingest"
	"mediacatalog-backend/internal/models"
)

var stagingColumns = []string{
	"external_id", "guid", "title", "series_title", "season_number",
	"episode_number", "content_type", "availability_state", "countries",
	"premium_features", "updated_ts", "added_ts", "provider", "description",
	"available_date", "expiration_date", "ratings", "youtube_video_ids",
	"category_id", "source_id", "video_id", "publication_date", "residual_doc",
}

const mergeUpsertQuery = `INSERT INTO media_items (
		id, external_id, guid, title, series_title, season_number, episode_number,
		content_type, availability_state, countries, premium_features, updated_ts,
		added_ts, provider, description, available_date, expiration_date, ratings,
		youtube_video_ids, category_id, source_id, video_id, publication_date,
		content_doc, thumbnails_doc, cbs_doc, yt_doc, msn_doc
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
	)
	ON CONFLICT (external_id) DO UPDATE SET
		guid = EXCLUDED.guid,
		title = EXCLUDED.title,
		series_title = EXCLUDED.series_title,
		season_number = EXCLUDED.season_number,
		episode_number = EXCLUDED.episode_number,
		content_type = EXCLUDED.content_type,
		availability_state = EXCLUDED.availability_state,
		countries = EXCLUDED.countries,
		premium_features = EXCLUDED.premium_features,
		updated_ts = EXCLUDED.updated_ts,
		added_ts = EXCLUDED.added_ts,
		provider = EXCLUDED.provider,
		description = EXCLUDED.description,
		available_date = EXCLUDED.available_date,
		expiration_date = EXCLUDED.expiration_date,
		ratings = EXCLUDED.ratings,
		youtube_video_ids = EXCLUDED.youtube_video_ids,
		category_id = EXCLUDED.category_id,
		source_id = EXCLUDED.source_id,
		video_id = EXCLUDED.video_id,
		publication_date = EXCLUDED.publication_date,
		content_doc = EXCLUDED.content_doc,
		thumbnails_doc = EXCLUDED.thumbnails_doc,
		cbs_doc = EXCLUDED.cbs_doc,
		yt_doc = EXCLUDED.yt_doc,
		msn_doc = EXCLUDED.msn_doc,
		updated_at = NOW()`

// ImportStore opens the transactional unit of work for an import run.
type ImportStore struct {
	pool *pgxpool.Pool
}

func NewImportStore(pool *pgxpool.Pool) *ImportStore {
	return &ImportStore{pool: pool}
}

func (s *ImportStore) Begin(ctx context.Context) (ingest.RunTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &importTx{tx: tx}, nil
}

// importTx carries one run's transaction. Staging truncate, batch loads and
// the canonical upserts all commit or roll back together.
type importTx struct {
	tx pgx.Tx
}

func (t *importTx) TruncateStaging(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, "TRUNCATE media_staging")
	return err
}

func (t *importTx) InsertStagingBatch(ctx context.Context, recs []*models.StagingRecord) error {
	_, err := t.tx.CopyFrom(
		ctx,
		pgx.Identifier{"media_staging"},
		stagingColumns,
		pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
			r := recs[i]
			residual, err := json.Marshal(r.Residual)
			if err != nil {
				residual = []byte("{}")
			}
			return []any{
				r.ExternalID, r.GUID, r.Title, r.SeriesTitle, r.SeasonNumber,
				r.EpisodeNumber, r.ContentType, r.AvailabilityState, r.Countries,
				r.PremiumFeatures, r.UpdatedTS, r.AddedTS, r.Provider,
				r.Description, r.AvailableDate, r.ExpirationDate, r.Ratings,
				r.YouTubeVideoIDs, r.CategoryID, r.SourceID, r.VideoID,
				r.PublicationDate, residual,
			}, nil
		}),
	)
	return err
}

// MergeToCatalog walks every staged row, re-parses it into the typed shape
// and upserts by external_id. One batched round trip carries all upserts.
func (t *importTx) MergeToCatalog(ctx context.Context) (int, error) {
	staged, err := t.readStaging(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading staging: %w", err)
	}
	if len(staged) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, rec := range staged {
		item := ingest.ConvertRow(rec)
		batch.Queue(mergeUpsertQuery,
			uuid.New(), item.ExternalID, item.GUID, item.Title, item.SeriesTitle,
			item.SeasonNumber, item.EpisodeNumber, item.ContentType,
			item.AvailabilityState, item.Countries, item.PremiumFeatures,
			item.UpdatedTS, item.AddedTS, item.Provider, item.Description,
			item.AvailableDate, item.ExpirationDate, item.Ratings,
			item.YouTubeVideoIDs, item.CategoryID, item.SourceID, item.VideoID,
			item.PublicationDate, item.ContentDoc, item.ThumbnailsDoc,
			item.CBSDoc, item.YTDoc, item.MSNDoc,
		)
	}

	br := t.tx.SendBatch(ctx, batch)
	for range staged {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("upsert: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	return len(staged), nil
}

func (t *importTx) readStaging(ctx context.Context) ([]*models.StagingRecord, error) {
	query := `SELECT external_id, guid, title, series_title, season_number,
		episode_number, content_type, availability_state, countries,
		premium_features, updated_ts, added_ts, provider, description,
		available_date, expiration_date, ratings, youtube_video_ids,
		category_id, source_id, video_id, publication_date, residual_doc
		FROM media_staging`

	rows, err := t.tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staged []*models.StagingRecord
	for rows.Next() {
		rec := &models.StagingRecord{}
		var residual []byte
		err := rows.Scan(
			&rec.ExternalID, &rec.GUID, &rec.Title, &rec.SeriesTitle,
			&rec.SeasonNumber, &rec.EpisodeNumber, &rec.ContentType,
			&rec.AvailabilityState, &rec.Countries, &rec.PremiumFeatures,
			&rec.UpdatedTS, &rec.AddedTS, &rec.Provider, &rec.Description,
			&rec.AvailableDate, &rec.ExpirationDate, &rec.Ratings,
			&rec.YouTubeVideoIDs, &rec.CategoryID, &rec.SourceID, &rec.VideoID,
			&rec.PublicationDate, &residual,
		)
		if err != nil {
			return nil, err
		}
		if len(residual) > 0 {
			_ = json.Unmarshal(residual, &rec.Residual)
		}
		staged = append(staged, rec)
	}
	return staged, rows.Err()
}

func (t *importTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *importTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
