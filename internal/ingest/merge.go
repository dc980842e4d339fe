package ingest

import (
	"encoding/json"
	"strings"

	"mediacatalog-backend/internal/models"
)

// ConvertRow re-parses one staging row into the typed canonical shape.
// Staging columns are untyped text, so nothing read back from staging is
// trusted: every structured field goes through the cell normalizer again.
// A malformed field degrades to nil and the row still merges with whatever
// survived.
func ConvertRow(s *models.StagingRecord) *models.MediaItem {
	item := &models.MediaItem{
		ExternalID:        strings.TrimSpace(s.ExternalID),
		GUID:              nullIfEmpty(s.GUID),
		Title:             nullIfEmpty(s.Title),
		SeriesTitle:       nullIfEmpty(s.SeriesTitle),
		SeasonNumber:      ParseNullableInt(s.SeasonNumber),
		EpisodeNumber:     ParseNullableInt(s.EpisodeNumber),
		ContentType:       nullIfEmpty(s.ContentType),
		AvailabilityState: nullIfEmpty(s.AvailabilityState),
		Countries:         ParseStringList(s.Countries),
		PremiumFeatures:   ParseStringList(s.PremiumFeatures),
		UpdatedTS:         ParseEpochMillis(s.UpdatedTS),
		AddedTS:           ParseEpochMillis(s.AddedTS),
		Provider:          nullIfEmpty(s.Provider),
		Description:       nullIfEmpty(s.Description),
		AvailableDate:     ParseNullableTime(s.AvailableDate),
		ExpirationDate:    ParseNullableTime(s.ExpirationDate),
		Ratings:           ParseJSONDoc(s.Ratings),
		YouTubeVideoIDs:   ParseFlattenedIDList(s.YouTubeVideoIDs),
		CategoryID:        nullIfEmpty(s.CategoryID),
		SourceID:          nullIfEmpty(s.SourceID),
		VideoID:           nullIfEmpty(s.VideoID),
		PublicationDate:   ParseNullableTime(s.PublicationDate),
	}

	item.ContentDoc = docFromResidual(s.Residual, "content")
	item.ThumbnailsDoc = docFromResidual(s.Residual, "thumbnails")
	item.CBSDoc = docFromResidual(s.Residual, "cbs")
	item.YTDoc = docFromResidual(s.Residual, "yt")
	item.MSNDoc = docFromResidual(s.Residual, "msn")

	return item
}

func nullIfEmpty(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}

func docFromResidual(residual map[string]interface{}, key string) json.RawMessage {
	if residual == nil {
		return nil
	}
	v, ok := residual[key]
	if !ok || v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
