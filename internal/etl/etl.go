// Package etl composes the import stages into one run:
//
//	resolve delimiter → read header → normalize columns → ensure table → load
//
// Every stage is a separate function so callers (the CLI, tests) can run or
// replace them individually. Run wires them together for a config.Pipeline.
package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"csv2fts/internal/config"
	"csv2fts/internal/datasource"
	"csv2fts/internal/datasource/file"
	"csv2fts/internal/datasource/httpds"
	"csv2fts/internal/ddl"
	"csv2fts/internal/metrics"
	csvparser "csv2fts/internal/parser/csv"
	"csv2fts/internal/probe"
	"csv2fts/internal/schema"
	"csv2fts/internal/storage"
)

// ErrNoColumns is returned when the header yields no usable column.
var ErrNoColumns = errors.New("etl: header has no non-empty fields")

// ErrInvalidPipeline wraps validation failures reported by Run.
var ErrInvalidPipeline = errors.New("etl: invalid pipeline")

// Report describes a finished (or aborted) run.
type Report struct {
	RunID     string
	Delimiter rune
	// Sniffed is true when the delimiter was detected rather than configured.
	Sniffed bool
	Columns schema.Columns
	Summary storage.Summary
	// Checksum is the xxh3 digest of the decoded input bytes the parser consumed.
	Checksum  uint64
	BytesRead int64
}

// Options carries the collaborators Run needs beyond the pipeline itself.
type Options struct {
	// Logger receives stage and progress logs. Nil means slog.Default().
	Logger *slog.Logger
	// Source overrides the source built from p.Source (tests).
	Source datasource.Source
	// OnRow is forwarded to storage.Load.
	OnRow func(storage.RowResult)
	// RunID labels the run's logs. Empty means a fresh UUID.
	RunID string
}

// Run executes one import for p.
func Run(ctx context.Context, p config.Pipeline, opt Options) (Report, error) {
	rep := Report{RunID: opt.RunID}
	if rep.RunID == "" {
		rep.RunID = uuid.NewString()
	}

	if issues := config.ValidatePipeline(p); config.HasErrors(issues) {
		var errs []error
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				errs = append(errs, iss)
			}
		}
		return rep, fmt.Errorf("%w: %w", ErrInvalidPipeline, errors.Join(errs...))
	}

	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run_id", rep.RunID, "job", p.Job)

	src := opt.Source
	if src == nil {
		src = SourceFor(p)
	}
	log.Info("import started",
		"input", p.Source.Location(),
		"storage", p.Storage.Kind,
		"table", p.Storage.DB.Table,
		"batch_size", p.Runtime.BatchSize,
	)

	// 1) Delimiter.
	stepStart := time.Now()
	var err error
	rep.Delimiter, rep.Sniffed, err = ResolveDelimiter(ctx, src, p.Parser.Options)
	metrics.RecordStep(p.Job, "sniff", err, time.Since(stepStart))
	if err != nil {
		return rep, err
	}
	log.Info("delimiter detected", "delimiter", probe.DelimiterName(rep.Delimiter), "sniffed", rep.Sniffed)

	// 2) Header.
	rc, err := src.Open(ctx)
	if err != nil {
		return rep, fmt.Errorf("etl: open input: %w", err)
	}
	defer rc.Close()
	sum := datasource.NewChecksumReader(rc)

	var reader *csvparser.Reader
	stepStart = time.Now()
	reader, rep.Columns, err = ReadColumns(sum, p.Parser.Options, rep.Delimiter)
	metrics.RecordStep(p.Job, "header", err, time.Since(stepStart))
	if err != nil {
		return rep, err
	}
	log.Info("header parsed", "fields", len(rep.Columns), "columns", strings.Join(rep.Columns.Names(), ","))
	for _, c := range rep.Columns {
		if c.Synthetic() {
			log.Warn("header field renamed", "position", c.Position, "original", c.Original, "name", c.Name)
		}
	}
	if d := rep.Columns.Duplicates(); len(d) > 0 {
		log.Warn("duplicate column names; table creation will likely fail", "names", strings.Join(d, ","))
	}

	// 3) Store.
	repo, err := storage.New(ctx, storage.Config{
		Kind:  p.Storage.Kind,
		DSN:   p.Storage.DB.DSN,
		Table: p.Storage.DB.Table,
	})
	if err != nil {
		return rep, fmt.Errorf("etl: open storage: %w", err)
	}
	defer repo.Close()

	if p.Storage.DB.CreateTable() {
		stepStart = time.Now()
		err = EnsureTable(ctx, p, repo, rep.Columns)
		metrics.RecordStep(p.Job, "create_table", err, time.Since(stepStart))
		if err != nil {
			return rep, err
		}
		log.Info("table ready", "table", p.Storage.DB.Table)
	}

	// 4) Load.
	stepStart = time.Now()
	rep.Summary, err = storage.Load(ctx, reader, repo, storage.LoadOptions{
		Columns:   rep.Columns.Names(),
		BatchSize: p.Runtime.BatchSize,
		Logger:    log,
		OnRow:     opt.OnRow,
		OnBatch: func(b storage.BatchStats) {
			metrics.RecordBatch(p.Job, int(b.Attempted), b.Duration)
		},
	})
	metrics.RecordStep(p.Job, "load", err, time.Since(stepStart))
	recordOutcomes(p.Job, rep.Summary)
	rep.Checksum, rep.BytesRead = sum.Sum64(), sum.BytesRead()
	if err != nil {
		log.Error("import aborted",
			"attempted", rep.Summary.Attempted,
			"inserted", rep.Summary.Inserted,
			"batches", rep.Summary.Batches,
			"err", err,
		)
		return rep, fmt.Errorf("etl: load: %w", err)
	}

	s := rep.Summary
	log.Info("import finished",
		"inserted", s.Inserted,
		"attempted", s.Attempted,
		"parse_skipped", s.ParseSkipped,
		"empty_skipped", s.EmptySkipped,
		"insert_failed", s.InsertFailed,
		"batches", s.Batches,
		"elapsed", s.Elapsed.Truncate(time.Millisecond),
		"bytes", rep.BytesRead,
		"xxh3", fmt.Sprintf("%016x", rep.Checksum),
	)
	return rep, nil
}

// SourceFor builds the datasource described by p.Source.
func SourceFor(p config.Pipeline) datasource.Source {
	if p.Source.Kind == "http" {
		h := p.Source.HTTP
		hdr := make(http.Header, len(h.Headers))
		for k, v := range h.Headers {
			hdr.Set(k, v)
		}
		return httpds.NewSource(h.URL, httpds.NewClient(httpds.Config{
			MaxRetries:         h.MaxRetries,
			InsecureSkipVerify: h.InsecureSkipVerify,
			Headers:            hdr,
		}))
	}
	return file.NewLocal(p.Source.File.Path)
}

// ResolveDelimiter returns the configured delimiter, or sniffs src when the
// option is "auto" or unset.
func ResolveDelimiter(ctx context.Context, src datasource.Source, opts config.Options) (rune, bool, error) {
	raw := opts.String("delimiter", "auto")
	if d, ok := probe.DecodeDelimiter(raw); ok {
		return d, false, nil
	}
	if s := strings.ToLower(strings.TrimSpace(raw)); s != "" && s != "auto" {
		return 0, false, fmt.Errorf("etl: invalid delimiter %q", raw)
	}
	d, err := probe.SniffDelimiter(ctx, src)
	if err != nil {
		return 0, false, fmt.Errorf("etl: %w", err)
	}
	return d, true, nil
}

// ReadColumns builds the CSV reader over r, consumes the header and
// normalizes it. The returned reader is positioned at the first data record.
func ReadColumns(r io.Reader, opts config.Options, delim rune) (*csvparser.Reader, schema.Columns, error) {
	reader, err := csvparser.NewReader(r, csvparser.OptionsFrom(opts, delim))
	if err != nil {
		return nil, nil, fmt.Errorf("etl: %w", err)
	}
	raw, err := reader.Header()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("etl: read header: input is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("etl: read header: %w", err)
	}
	cols := schema.NormalizeHeader(raw, schema.HeaderOptions{
		FoldAccents: opts.Bool("fold_accents", false),
	})
	if len(cols) == 0 {
		return nil, nil, ErrNoColumns
	}
	return reader, cols, nil
}

// EnsureTable issues the backend's idempotent create statement for cols.
func EnsureTable(ctx context.Context, p config.Pipeline, repo storage.Repository, cols schema.Columns) error {
	def := ddl.FromNames(p.Storage.DB.Table, cols.Names())
	if err := storage.EnsureTable(ctx, p.Storage.Kind, repo, def); err != nil {
		return fmt.Errorf("etl: %w", err)
	}
	return nil
}

func recordOutcomes(job string, s storage.Summary) {
	metrics.RecordRow(job, storage.Inserted.String(), s.Inserted)
	metrics.RecordRow(job, storage.ParseSkipped.String(), s.ParseSkipped)
	metrics.RecordRow(job, storage.EmptySkipped.String(), s.EmptySkipped)
	metrics.RecordRow(job, storage.InsertFailed.String(), s.InsertFailed)
}
