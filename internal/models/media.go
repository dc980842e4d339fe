package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MediaItem is the canonical catalog entity. external_id is the natural key:
// re-ingesting the same id overwrites the existing row, last write wins.
type MediaItem struct {
	ID                uuid.UUID       `json:"id"`
	ExternalID        string          `json:"external_id"`
	GUID              *string         `json:"guid"`
	Title             *string         `json:"title"`
	SeriesTitle       *string         `json:"series_title"`
	SeasonNumber      *int            `json:"season_number"`
	EpisodeNumber     *int            `json:"episode_number"`
	ContentType       *string         `json:"content_type"`
	AvailabilityState *string         `json:"availability_state"`
	Countries         []string        `json:"countries"`
	PremiumFeatures   []string        `json:"premium_features"`
	UpdatedTS         *int64          `json:"updated_ts"`
	AddedTS           *int64          `json:"added_ts"`
	Provider          *string         `json:"provider"`
	Description       *string         `json:"description"`
	AvailableDate     *time.Time      `json:"available_date"`
	ExpirationDate    *time.Time      `json:"expiration_date"`
	Ratings           json.RawMessage `json:"ratings"`
	YouTubeVideoIDs   []string        `json:"youtube_video_ids"`
	CategoryID        *string         `json:"category_id"`
	SourceID          *string         `json:"source_id"`
	VideoID           *string         `json:"video_id"`
	PublicationDate   *time.Time      `json:"publication_date"`
	ContentDoc        json.RawMessage `json:"content"`
	ThumbnailsDoc     json.RawMessage `json:"thumbnails"`
	CBSDoc            json.RawMessage `json:"cbs_fields"`
	YTDoc             json.RawMessage `json:"yt_fields"`
	MSNDoc            json.RawMessage `json:"msn_fields"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type CreateMediaItemRequest struct {
	ExternalID        string          `json:"external_id"`
	GUID              *string         `json:"guid"`
	Title             *string         `json:"title"`
	SeriesTitle       *string         `json:"series_title"`
	SeasonNumber      *int            `json:"season_number"`
	EpisodeNumber     *int            `json:"episode_number"`
	ContentType       *string         `json:"content_type"`
	AvailabilityState *string         `json:"availability_state"`
	Countries         []string        `json:"countries"`
	PremiumFeatures   []string        `json:"premium_features"`
	Provider          *string         `json:"provider"`
	Description       *string         `json:"description"`
	Ratings           json.RawMessage `json:"ratings"`
	YouTubeVideoIDs   []string        `json:"youtube_video_ids"`
}
