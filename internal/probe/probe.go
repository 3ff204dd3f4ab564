// Package probe inspects an input before loading: it sniffs the delimiter and
// previews how the header maps onto table columns.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"csv2fts/internal/datasource"
	"csv2fts/internal/parser"
	csvparser "csv2fts/internal/parser/csv"
	"csv2fts/internal/schema"
)

// Options control the sampling behavior.
type Options struct {
	// Delimiter forces a delimiter; zero means sniff.
	Delimiter rune
	// Parser carries encoding and quoting settings. Its Comma is ignored.
	Parser csvparser.Options
	// Header tunes column naming.
	Header schema.HeaderOptions
	// SampleRows is how many data records to scan; zero means 1000.
	SampleRows int
}

// Result summarizes a probed input.
type Result struct {
	Delimiter rune
	// Sniffed is true when Delimiter came from DetectDelimiter.
	Sniffed bool
	// Headers is the raw header record.
	Headers []string
	Columns schema.Columns
	// Duplicates lists column names that occur more than once.
	Duplicates []string

	// Sampled counts data records read (good or bad).
	Sampled int
	// ParseErrors counts sampled records that failed to parse.
	ParseErrors int
	// Wide and Narrow count sampled records with more or fewer fields than
	// there are columns.
	Wide   int
	Narrow int
}

// Probe sniffs (unless forced) and reads the header plus a sample of records.
func Probe(ctx context.Context, src datasource.Source, opt Options) (Result, error) {
	res := Result{Delimiter: opt.Delimiter}
	if res.Delimiter == 0 {
		d, err := SniffDelimiter(ctx, src)
		if err != nil {
			return Result{}, err
		}
		res.Delimiter, res.Sniffed = d, true
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("probe: %w", err)
	}
	defer rc.Close()

	popt := opt.Parser
	popt.Comma = res.Delimiter
	rd, err := csvparser.NewReader(rc, popt)
	if err != nil {
		return Result{}, fmt.Errorf("probe: %w", err)
	}

	hdr, err := rd.Header()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("probe: %w", err)
	}
	res.Headers = hdr
	res.Columns = schema.NormalizeHeader(hdr, opt.Header)
	res.Duplicates = res.Columns.Duplicates()

	limit := opt.SampleRows
	if limit <= 0 {
		limit = 1000
	}
	width := len(res.Columns)
	for res.Sampled < limit {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		res.Sampled++
		if err != nil {
			if parser.IsRecordError(err) {
				res.ParseErrors++
				continue
			}
			return Result{}, fmt.Errorf("probe: %w", err)
		}
		switch {
		case len(rec) > width:
			res.Wide++
		case len(rec) < width:
			res.Narrow++
		}
	}
	return res, nil
}
