package models

// StagingRecord is one reshaped input row, loaded into media_staging for the
// duration of a single import run. Every mapped column is untyped text; the
// merge step re-parses them into typed columns. Residual holds everything the
// input carried that is not surfaced as a first-class column: assembled
// array groups, vendor namespace buckets, and unclassified keys.
type StagingRecord struct {
	ExternalID        string
	GUID              string
	Title             string
	SeriesTitle       string
	SeasonNumber      string
	EpisodeNumber     string
	ContentType       string
	AvailabilityState string
	Countries         string
	PremiumFeatures   string
	UpdatedTS         string
	AddedTS           string
	Provider          string
	Description       string
	AvailableDate     string
	ExpirationDate    string
	Ratings           string
	YouTubeVideoIDs   string
	CategoryID        string
	SourceID          string
	VideoID           string
	PublicationDate   string

	Residual map[string]interface{}
}
