package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RowSource is a pull iterator over flat input rows. The pull model is the
// backpressure contract: the loader asks for one row at a time, so no more
// than one batch of rows is ever buffered while an insert is in flight.
type RowSource interface {
	// Next advances to the next row. When it returns false, Err
	// distinguishes clean end-of-input from a terminal failure.
	Next() bool

	// Row returns the current row. Valid only after Next returned true.
	Row() map[string]interface{}

	// Skipped reports how many unparseable rows were dropped so far.
	Skipped() int

	Err() error
	Close() error
}

// CSVSource streams rows out of delimited text with a header line. A
// malformed line is skipped and counted, never fatal to the run.
type CSVSource struct {
	reader  *csv.Reader
	header  []string
	current map[string]interface{}
	skipped int
	err     error
	closer  io.Closer
}

// NewCSVSource reads and validates the header up front. A stream without a
// usable header is a parse failure for the whole run.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	br := bufio.NewReader(r)
	stripUTF8BOM(br)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, newError(KindParseFailure, errors.New("missing header row"))
		}
		return nil, newError(KindParseFailure, fmt.Errorf("reading header: %w", err))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	src := &CSVSource{reader: cr, header: header}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src, nil
}

func stripUTF8BOM(r *bufio.Reader) {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
}

func (s *CSVSource) Next() bool {
	for {
		row, err := s.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				s.skipped++
				continue
			}
			s.err = newError(KindParseFailure, err)
			return false
		}

		rec := make(map[string]interface{}, len(s.header))
		for i, name := range s.header {
			if name == "" || i >= len(row) {
				continue
			}
			rec[name] = row[i]
		}
		s.current = rec
		return true
	}
}

func (s *CSVSource) Row() map[string]interface{} { return s.current }
func (s *CSVSource) Skipped() int                { return s.skipped }
func (s *CSVSource) Err() error                  { return s.err }

func (s *CSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// JSONSource iterates a pre-parsed {"items":[...]} payload. Values keep
// their decoded types, so pre-nested objects reach the reshaper intact.
type JSONSource struct {
	items   []map[string]interface{}
	pos     int
	current map[string]interface{}
	skipped int
}

func NewJSONSource(items []map[string]interface{}) *JSONSource {
	return &JSONSource{items: items}
}

func (s *JSONSource) Next() bool {
	for s.pos < len(s.items) {
		item := s.items[s.pos]
		s.pos++
		if item == nil {
			s.skipped++
			continue
		}
		s.current = item
		return true
	}
	return false
}

func (s *JSONSource) Row() map[string]interface{} { return s.current }
func (s *JSONSource) Skipped() int                { return s.skipped }
func (s *JSONSource) Err() error                  { return nil }
func (s *JSONSource) Close() error                { return nil }
