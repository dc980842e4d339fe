package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediacatalog-backend/internal/models"
)

const mediaItemColumns = `id, external_id, guid, title, series_title,
	season_number, episode_number, content_type, availability_state, countries,
	premium_features, updated_ts, added_ts, provider, description,
	available_date, expiration_date, ratings, youtube_video_ids, category_id,
	source_id, video_id, publication_date, content_doc, thumbnails_doc,
	cbs_doc, yt_doc, msn_doc, created_at, updated_at`

type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

func (r *MediaRepo) Create(ctx context.Context, m *models.MediaItem) error {
	m.ID = uuid.New()

	query := `INSERT INTO media_items (id, external_id, guid, title, series_title,
		season_number, episode_number, content_type, availability_state,
		countries, premium_features, provider, description, ratings,
		youtube_video_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		m.ID, m.ExternalID, m.GUID, m.Title, m.SeriesTitle, m.SeasonNumber,
		m.EpisodeNumber, m.ContentType, m.AvailabilityState, m.Countries,
		m.PremiumFeatures, m.Provider, m.Description, m.Ratings,
		m.YouTubeVideoIDs,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *MediaRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error) {
	query := "SELECT " + mediaItemColumns + " FROM media_items WHERE id = $1"
	return r.scanOne(ctx, query, id)
}

func (r *MediaRepo) GetByExternalID(ctx context.Context, externalID string) (*models.MediaItem, error) {
	query := "SELECT " + mediaItemColumns + " FROM media_items WHERE external_id = $1"
	return r.scanOne(ctx, query, externalID)
}

func (r *MediaRepo) scanOne(ctx context.Context, query string, arg interface{}) (*models.MediaItem, error) {
	m := &models.MediaItem{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.ExternalID, &m.GUID, &m.Title, &m.SeriesTitle,
		&m.SeasonNumber, &m.EpisodeNumber, &m.ContentType,
		&m.AvailabilityState, &m.Countries, &m.PremiumFeatures, &m.UpdatedTS,
		&m.AddedTS, &m.Provider, &m.Description, &m.AvailableDate,
		&m.ExpirationDate, &m.Ratings, &m.YouTubeVideoIDs, &m.CategoryID,
		&m.SourceID, &m.VideoID, &m.PublicationDate, &m.ContentDoc,
		&m.ThumbnailsDoc, &m.CBSDoc, &m.YTDoc, &m.MSNDoc, &m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List supports search over title/series title plus content-type and
// provider filters, with offset pagination and a total count.
func (r *MediaRepo) List(ctx context.Context, search, contentType, provider, sortBy string, limit, offset int) ([]*models.MediaItem, int, error) {
	var args []interface{}
	argIdx := 1

	where := "WHERE 1=1"
	if search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR series_title ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}
	if contentType != "" {
		where += fmt.Sprintf(" AND content_type = $%d", argIdx)
		args = append(args, contentType)
		argIdx++
	}
	if provider != "" {
		where += fmt.Sprintf(" AND provider = $%d", argIdx)
		args = append(args, provider)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM media_items " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "updated_at DESC"
	switch sortBy {
	case "title":
		orderBy = "title ASC NULLS LAST"
	case "publication_date":
		orderBy = "publication_date DESC NULLS LAST"
	case "created_at":
		orderBy = "created_at DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM media_items %s ORDER BY %s LIMIT $%d OFFSET $%d",
		mediaItemColumns, where, orderBy, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		m := &models.MediaItem{}
		err := rows.Scan(
			&m.ID, &m.ExternalID, &m.GUID, &m.Title, &m.SeriesTitle,
			&m.SeasonNumber, &m.EpisodeNumber, &m.ContentType,
			&m.AvailabilityState, &m.Countries, &m.PremiumFeatures,
			&m.UpdatedTS, &m.AddedTS, &m.Provider, &m.Description,
			&m.AvailableDate, &m.ExpirationDate, &m.Ratings,
			&m.YouTubeVideoIDs, &m.CategoryID, &m.SourceID, &m.VideoID,
			&m.PublicationDate, &m.ContentDoc, &m.ThumbnailsDoc, &m.CBSDoc,
			&m.YTDoc, &m.MSNDoc, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *MediaRepo) Update(ctx context.Context, m *models.MediaItem) error {
	query := `UPDATE media_items SET
		guid = $1, title = $2, series_title = $3, season_number = $4,
		episode_number = $5, content_type = $6, availability_state = $7,
		countries = $8, premium_features = $9, provider = $10,
		description = $11, ratings = $12, youtube_video_ids = $13,
		updated_at = NOW()
		WHERE id = $14
		RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		m.GUID, m.Title, m.SeriesTitle, m.SeasonNumber, m.EpisodeNumber,
		m.ContentType, m.AvailabilityState, m.Countries, m.PremiumFeatures,
		m.Provider, m.Description, m.Ratings, m.YouTubeVideoIDs, m.ID,
	).Scan(&m.UpdatedAt)
}

func (r *MediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM media_items WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("media item %s not found", id)
	}
	return nil
}
