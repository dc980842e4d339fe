package ingest

import "fmt"

// Kind categorizes a run-fatal ingestion failure. Cell- and row-level
// problems never surface here; they degrade to NULL fields or skipped rows.
type Kind string

const (
	KindInvalidFormat Kind = "invalid-input-format"
	KindSizeExceeded  Kind = "size-exceeded"
	KindParseFailure  Kind = "parse-failure"
	KindStoreFailure  Kind = "store-failure"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// NewError builds a categorized ingestion error. Exposed for callers that
// enforce the input contract before handing work to the Importer.
func NewError(kind Kind, err error) *Error { return newError(kind, err) }
