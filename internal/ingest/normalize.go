package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cell-level normalization. Every function here degrades silently: a value
// that cannot be parsed becomes nil, never an error. Rows are the smallest
// unit that can fail; cells are not.

var (
	bracketJoinRe = regexp.MustCompile(`\]\s*\[`)
	altDelimRe    = regexp.MustCompile(`[;|/]`)
	multiCommaRe  = regexp.MustCompile(`,{2,}`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	numericRe     = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	digitsRe      = regexp.MustCompile(`^[0-9]+$`)
)

// ParseStringList turns a raw cell into an ordered list of trimmed tokens.
// A JSON array parses directly; anything else is treated as a delimited
// string: concatenation artifacts ("[US] [CA]"), alternate delimiters
// (;, |, /), stray quotes and wrapping brackets are all cleaned up.
// An all-empty result is nil, not an empty list.
func ParseStringList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") {
		var arr []interface{}
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			out := make([]string, 0, len(arr))
			for _, el := range arr {
				tok := strings.TrimSpace(stringifyScalar(el))
				if tok != "" {
					out = append(out, tok)
				}
			}
			if len(out) == 0 {
				return nil
			}
			return out
		}
	}

	// Delimited-string fallback. A closing bracket followed by an opening
	// bracket marks the seam of two concatenated arrays.
	s = bracketJoinRe.ReplaceAllString(s, ",")
	s = strings.Trim(s, "[]{}")
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	s = altDelimRe.ReplaceAllString(s, ",")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = multiCommaRe.ReplaceAllString(s, ",")

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if tok := strings.TrimSpace(p); tok != "" {
			out = append(out, tok)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseJSONDoc accepts a cell only if it is strict JSON.
func ParseJSONDoc(raw string) json.RawMessage {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if !json.Valid([]byte(s)) {
		return nil
	}
	return json.RawMessage(s)
}

// ParseFlattenedIDList handles a vendor field that arrives as a map of
// arbitrary keys to id strings, a JSON array, or a delimited string. Map
// keys are ignored; only the values matter. Map values are ordered by key
// so the result is deterministic.
func ParseFlattenedIDList(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return idsFromMap(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, el := range v {
			if tok := strings.TrimSpace(stringifyScalar(el)); tok != "" {
				out = append(out, tok)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "{") {
			var m map[string]interface{}
			if err := json.Unmarshal([]byte(s), &m); err == nil {
				return idsFromMap(m)
			}
		}
		return ParseStringList(s)
	default:
		return ParseStringList(stringifyScalar(value))
	}
}

func idsFromMap(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(m))
	for _, k := range keys {
		if tok := strings.TrimSpace(stringifyScalar(m[k])); tok != "" {
			out = append(out, tok)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseNullableInt accepts an optional-decimal numeric string ("7", "7.0").
func ParseNullableInt(raw string) *int {
	s := strings.TrimSpace(raw)
	if !numericRe.MatchString(s) {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// ParseEpochMillis accepts a millisecond epoch only if purely digits.
func ParseEpochMillis(raw string) *int64 {
	s := strings.TrimSpace(raw)
	if !digitsRe.MatchString(s) {
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &ms
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseNullableTime tries the ISO-style layouts in order.
func ParseNullableTime(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// stringifyScalar renders a decoded JSON value the way it would appear in a
// CSV cell. Nested structures fall back to their JSON encoding.
func stringifyScalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
