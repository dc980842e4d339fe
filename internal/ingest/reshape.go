package ingest

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"mediacatalog-backend/internal/models"
)

// Key classification. Vendor feeds flatten nested structure into three key
// shapes: array paths ("content[2].width"), namespaced keys
// ("cbs$SeriesTitle"), and plain columns. Each input key is matched against
// these rules exactly once; whatever does not land in a staging column
// survives in the residual document.

var arrayPathRe = regexp.MustCompile(`^([A-Za-z0-9_]+)\[([0-9]+)\](?:\.(.+))?$`)

// stagingColumns maps a canonical column name to its field on StagingRecord.
var stagingColumns = map[string]func(*models.StagingRecord) *string{
	"external_id":        func(s *models.StagingRecord) *string { return &s.ExternalID },
	"guid":               func(s *models.StagingRecord) *string { return &s.GUID },
	"title":              func(s *models.StagingRecord) *string { return &s.Title },
	"series_title":       func(s *models.StagingRecord) *string { return &s.SeriesTitle },
	"season_number":      func(s *models.StagingRecord) *string { return &s.SeasonNumber },
	"episode_number":     func(s *models.StagingRecord) *string { return &s.EpisodeNumber },
	"content_type":       func(s *models.StagingRecord) *string { return &s.ContentType },
	"availability_state": func(s *models.StagingRecord) *string { return &s.AvailabilityState },
	"countries":          func(s *models.StagingRecord) *string { return &s.Countries },
	"premium_features":   func(s *models.StagingRecord) *string { return &s.PremiumFeatures },
	"updated":            func(s *models.StagingRecord) *string { return &s.UpdatedTS },
	"added":              func(s *models.StagingRecord) *string { return &s.AddedTS },
	"provider":           func(s *models.StagingRecord) *string { return &s.Provider },
	"description":        func(s *models.StagingRecord) *string { return &s.Description },
	"available_date":     func(s *models.StagingRecord) *string { return &s.AvailableDate },
	"expiration_date":    func(s *models.StagingRecord) *string { return &s.ExpirationDate },
	"ratings":            func(s *models.StagingRecord) *string { return &s.Ratings },
	"youtube_video_ids":  func(s *models.StagingRecord) *string { return &s.YouTubeVideoIDs },
	"category_id":        func(s *models.StagingRecord) *string { return &s.CategoryID },
	"source_id":          func(s *models.StagingRecord) *string { return &s.SourceID },
	"video_id":           func(s *models.StagingRecord) *string { return &s.VideoID },
	"publication_date":   func(s *models.StagingRecord) *string { return &s.PublicationDate },
}

// vendorAliases promotes known namespaced keys to first-class staging
// columns. An alias wins over the same-meaning plain column when both are
// present on a row.
var vendorAliases = map[string]string{
	"cbs$SeriesTitle":       "series_title",
	"cbs$SeasonNumber":      "season_number",
	"cbs$EpisodeNumber":     "episode_number",
	"cbs$ContentType":       "content_type",
	"cbs$AvailabilityState": "availability_state",
	"cbs$Countries":         "countries",
	"cbs$PremiumFeatures":   "premium_features",
	"cbs$CategoryId":        "category_id",
	"cbs$SourceId":          "source_id",
	"cbs$VideoId":           "video_id",
	"ytcp$youTubeVideoIds":  "youtube_video_ids",
}

// Reshape classifies every key of one flat input row and produces the
// staging record for it. Input values are strings for CSV rows and may be
// structured values for JSON rows; structured values headed for a text
// column are stringified, structured values that belong to the residual
// document pass through unchanged.
func Reshape(row map[string]interface{}) *models.StagingRecord {
	rec := &models.StagingRecord{Residual: make(map[string]interface{})}

	plainVals := make(map[string]string)
	vendorVals := make(map[string]string)
	buckets := make(map[string]map[string]interface{})
	groups := make(map[string]map[int]map[string]interface{})

	// Sorted iteration keeps residual assembly deterministic.
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := row[key]

		if m := arrayPathRe.FindStringSubmatch(key); m != nil {
			base, sub := m[1], m[3]
			idx, _ := strconv.Atoi(m[2])
			g := groups[base]
			if g == nil {
				g = make(map[int]map[string]interface{})
				groups[base] = g
			}
			el := g[idx]
			if el == nil {
				el = make(map[string]interface{})
				g[idx] = el
			}
			el[sub] = val
			continue
		}

		if i := strings.Index(key, "$"); i > 0 {
			if col, ok := vendorAliases[key]; ok {
				vendorVals[col] = stringifyScalar(val)
				continue
			}
			prefix, name := key[:i], key[i+1:]
			b := buckets[prefix]
			if b == nil {
				b = make(map[string]interface{})
				buckets[prefix] = b
			}
			b[name] = val
			continue
		}

		if _, ok := stagingColumns[key]; ok {
			plainVals[key] = stringifyScalar(val)
			continue
		}

		// Pre-nested or unknown plain key: straight into the residual
		// document, no re-flattening.
		rec.Residual[key] = val
	}

	for col, v := range plainVals {
		*stagingColumns[col](rec) = v
	}
	// Vendor alias precedence. An empty alias value never blanks out a
	// populated plain column.
	for col, v := range vendorVals {
		if strings.TrimSpace(v) != "" {
			*stagingColumns[col](rec) = v
		}
	}

	for base, g := range groups {
		list := assembleGroup(g)
		if len(list) > 0 {
			rec.Residual[base] = list
			continue
		}
		// An empty flattened reconstruction must not overwrite an explicit
		// pre-nested value of the same name.
		if _, exists := rec.Residual[base]; !exists {
			rec.Residual[base] = list
		}
	}

	for prefix, b := range buckets {
		if len(b) == 0 {
			continue
		}
		if existing, ok := rec.Residual[prefix].(map[string]interface{}); ok {
			for k, v := range b {
				if _, dup := existing[k]; !dup {
					existing[k] = v
				}
			}
			continue
		}
		rec.Residual[prefix] = b
	}

	return rec
}

// assembleGroup orders a sparse index→object map into a list. Gaps in the
// index space are allowed and simply closed up; downstream consumers must
// not assume density.
func assembleGroup(g map[int]map[string]interface{}) []interface{} {
	indices := make([]int, 0, len(g))
	for i := range g {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	list := make([]interface{}, 0, len(indices))
	for _, i := range indices {
		el := g[i]
		// "base[0]" with no sub-field arrives under the empty key and
		// stands alone as a scalar element.
		if scalar, ok := el[""]; ok && len(el) == 1 {
			list = append(list, scalar)
			continue
		}
		delete(el, "")
		list = append(list, el)
	}
	return list
}
