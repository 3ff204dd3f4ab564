// Package csv reads delimited text as a stream of records for the loader.
//
// Input bytes pass through three optional layers before encoding/csv sees
// them: charset decoding, literal scrub rewrites and, for the first cell, BOM
// removal. Per-record parse failures surface as *parser.RecordError so the
// caller can skip the record and keep reading.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"csv2fts/internal/config"
	"csv2fts/internal/parser"
)

// Options configures the reader. The zero value reads comma-separated UTF-8
// with variable-width records.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// LazyQuotes tolerates quotes inside unquoted fields.
	LazyQuotes bool
	// StrictWidth makes every data record match the header's field count;
	// mismatches are reported as record errors.
	StrictWidth bool
	// Encoding names the input charset (WHATWG label, e.g. "windows-1251").
	// Empty means UTF-8.
	Encoding string
	// Scrub maps literal byte sequences to replacements applied before parsing.
	Scrub map[string]string
}

// OptionsFrom maps parser.options onto Options. comma is the delimiter already
// resolved by the caller (sniffed or configured).
func OptionsFrom(o config.Options, comma rune) Options {
	return Options{
		Comma:       comma,
		LazyQuotes:  o.Bool("lazy_quotes", false),
		StrictWidth: o.Bool("strict_width", false),
		Encoding:    o.String("encoding", ""),
		Scrub:       o.StringMap("scrub"),
	}
}

// Reader implements parser.RecordReader over encoding/csv.
type Reader struct {
	cr         *csv.Reader
	headerRead bool
	line       int
}

var _ parser.RecordReader = (*Reader)(nil)

// NewReader wraps r. It fails only for an unknown encoding or an invalid
// delimiter.
func NewReader(r io.Reader, opt Options) (*Reader, error) {
	comma := opt.Comma
	if comma == 0 {
		comma = ','
	}
	if comma == '"' || comma == '\r' || comma == '\n' || comma == utf8.RuneError {
		return nil, fmt.Errorf("csv: invalid delimiter %q", comma)
	}

	src, err := decodeCharset(r, opt.Encoding)
	if err != nil {
		return nil, err
	}
	if len(opt.Scrub) > 0 {
		src = newStreamingRewriter(src, opt.Scrub)
	}

	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.LazyQuotes = opt.LazyQuotes
	cr.ReuseRecord = false
	if opt.StrictWidth {
		// 0 pins the width to the first record read, which is the header.
		cr.FieldsPerRecord = 0
	} else {
		cr.FieldsPerRecord = -1
	}
	return &Reader{cr: cr}, nil
}

func decodeCharset(r io.Reader, label string) (io.Reader, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("csv: unknown encoding %q: %w", label, err)
	}
	if enc == unicode.UTF8 {
		return r, nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// Header reads the first record. An empty input yields io.EOF. Any parse error
// on the header is fatal because no column set can be derived without it.
func (r *Reader) Header() ([]string, error) {
	if r.headerRead {
		return nil, errors.New("csv: header already read")
	}
	r.headerRead = true
	rec, err := r.cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	r.line, _ = r.cr.FieldPos(0)
	return StripHeaderBOM(rec), nil
}

// Next returns the next data record. Parse errors, including width
// mismatches in strict mode, come back as *parser.RecordError; the reader has
// already advanced past the offending record.
func (r *Reader) Next() ([]string, error) {
	if !r.headerRead {
		if _, err := r.Header(); err != nil {
			return nil, err
		}
	}
	rec, err := r.cr.Read()
	if err == nil {
		r.line, _ = r.cr.FieldPos(0)
		return rec, nil
	}
	if err == io.EOF {
		return nil, io.EOF
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return nil, &parser.RecordError{Line: pe.StartLine, Err: pe.Err}
	}
	return nil, fmt.Errorf("read csv: %w", err)
}

// Line returns the input line where the most recently returned record started.
func (r *Reader) Line() int { return r.line }
