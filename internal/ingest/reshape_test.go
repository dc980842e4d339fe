package ingest

import (
	"reflect"
	"testing"
)

func TestReshapePlainColumns(t *testing.T) {
	rec := Reshape(map[string]interface{}{
		"external_id":   "x1",
		"title":         "Pilot",
		"season_number": "1",
		"countries":     "US,CA",
	})

	if rec.ExternalID != "x1" {
		t.Errorf("expected external_id x1, got %q", rec.ExternalID)
	}
	if rec.Title != "Pilot" {
		t.Errorf("expected title Pilot, got %q", rec.Title)
	}
	if rec.SeasonNumber != "1" {
		t.Errorf("expected season_number 1, got %q", rec.SeasonNumber)
	}
	if rec.Countries != "US,CA" {
		t.Errorf("expected countries US,CA, got %q", rec.Countries)
	}
	if len(rec.Residual) != 0 {
		t.Errorf("expected empty residual, got %v", rec.Residual)
	}
}

func TestReshapeVendorAliasPrecedence(t *testing.T) {
	rec := Reshape(map[string]interface{}{
		"series_title":    "A",
		"cbs$SeriesTitle": "B",
	})

	if rec.SeriesTitle != "B" {
		t.Errorf("expected vendor alias to win, got %q", rec.SeriesTitle)
	}
}

func TestReshapeEmptyAliasDoesNotBlankPlainColumn(t *testing.T) {
	rec := Reshape(map[string]interface{}{
		"series_title":    "A",
		"cbs$SeriesTitle": "",
	})

	if rec.SeriesTitle != "A" {
		t.Errorf("expected plain column to survive empty alias, got %q", rec.SeriesTitle)
	}
}

func TestReshapeArrayPathReassembly(t *testing.T) {
	rec := Reshape(map[string]interface{}{
		"external_id":      "x1",
		"content[0].url":   "a.jpg",
		"content[0].width": "100",
		"content[1].url":   "b.jpg",
	})

	got, ok := rec.Residual["content"].([]interface{})
	if !ok {
		t.Fatalf("expected content list in residual, got %T", rec.Residual["content"])
	}
	want := []interface{}{
		map[string]interface{}{"url": "a.jpg", "width": "100"},
		map[string]interface{}{"url": "b.jpg"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("content = %v, want %v", got, want)
	}
}

func TestReshapeArrayPathGaps(t *testing.T) {
	// Sparse indices close up in order; density is never assumed.
	rec := Reshape(map[string]interface{}{
		"thumbnails[4].url": "late.jpg",
		"thumbnails[1].url": "early.jpg",
	})

	got, ok := rec.Residual["thumbnails"].([]interface{})
	if !ok {
		t.Fatalf("expected thumbnails list in residual, got %T", rec.Residual["thumbnails"])
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 thumbnails, got %d", len(got))
	}
	first := got[0].(map[string]interface{})
	if first["url"] != "early.jpg" {
		t.Errorf("expected index order preserved, got %v", got)
	}
}

func TestReshapeNamespaceBuckets(t *testing.T) {
	rec := Reshape(map[string]interface{}{
		"external_id":    "x1",
		"yt$channelId":   "UC123",
		"msn$marketCode": "en-us",
		"pl2$feedId":     "f9",
	})

	yt, ok := rec.Residual["yt"].(map[string]interface{})
	if !ok || yt["channelId"] != "UC123" {
		t.Errorf("expected yt bucket with channelId, got %v", rec.Residual["yt"])
	}
	msn, ok := rec.Residual["msn"].(map[string]interface{})
	if !ok || msn["marketCode"] != "en-us" {
		t.Errorf("expected msn bucket with marketCode, got %v", rec.Residual["msn"])
	}
	pl2, ok := rec.Residual["pl2"].(map[string]interface{})
	if !ok || pl2["feedId"] != "f9" {
		t.Errorf("expected pl2 bucket with feedId, got %v", rec.Residual["pl2"])
	}
}

func TestReshapePromotedAliasLeavesBucketClean(t *testing.T) {
	rec := Reshape(map[string]interface{}{
		"ytcp$youTubeVideoIds": `{"a":"id1"}`,
		"ytcp$channelTitle":    "News",
	})

	if rec.YouTubeVideoIDs != `{"a":"id1"}` {
		t.Errorf("expected promoted youtube ids, got %q", rec.YouTubeVideoIDs)
	}
	bucket, ok := rec.Residual["ytcp"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected ytcp bucket, got %T", rec.Residual["ytcp"])
	}
	if _, promoted := bucket["youTubeVideoIds"]; promoted {
		t.Error("promoted alias should not stay in the namespace bucket")
	}
	if bucket["channelTitle"] != "News" {
		t.Errorf("expected channelTitle in bucket, got %v", bucket)
	}
}

func TestReshapeUnknownKeysSurviveInResidual(t *testing.T) {
	rec := Reshape(map[string]interface{}{
		"external_id":  "x1",
		"vendor_notes": "keep me",
	})

	if rec.Residual["vendor_notes"] != "keep me" {
		t.Errorf("expected unknown key in residual, got %v", rec.Residual)
	}
}

func TestReshapePreNestedPassThrough(t *testing.T) {
	nested := []interface{}{
		map[string]interface{}{"url": "a.jpg", "width": float64(100)},
	}
	rec := Reshape(map[string]interface{}{
		"external_id": "x1",
		"content":     nested,
	})

	if !reflect.DeepEqual(rec.Residual["content"], nested) {
		t.Errorf("expected pre-nested content unchanged, got %v", rec.Residual["content"])
	}
}

func TestReshapeScalarArrayElements(t *testing.T) {
	// "tags[0]" with no sub-field is a bare scalar element, not an object.
	rec := Reshape(map[string]interface{}{
		"tags[0]": "news",
		"tags[1]": "sports",
	})

	want := []interface{}{"news", "sports"}
	if !reflect.DeepEqual(rec.Residual["tags"], want) {
		t.Errorf("tags = %v, want %v", rec.Residual["tags"], want)
	}
}

func TestReshapeStructuredColumnValueIsStringified(t *testing.T) {
	// JSON input can carry a ratings object; the staging column is text.
	rec := Reshape(map[string]interface{}{
		"ratings": map[string]interface{}{"mpaa": "PG"},
	})

	if rec.Ratings != `{"mpaa":"PG"}` {
		t.Errorf("expected stringified ratings, got %q", rec.Ratings)
	}
}
