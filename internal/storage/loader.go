// This file implements the batched loader: it drains records from a
// parser.RecordReader, shapes each one to the column count and inserts it
// through a Batch, committing every BatchSize attempted rows and once more at
// end of input.
//
// Logging: on every commit, a concise progress line is emitted with running
// totals and instantaneous rows/sec since the previous commit.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"csv2fts/internal/parser"
)

// Outcome classifies what happened to one input record.
type Outcome int

const (
	// Inserted means the insert statement succeeded.
	Inserted Outcome = iota
	// ParseSkipped means the record could not be parsed; it was reported and
	// skipped.
	ParseSkipped
	// EmptySkipped means the record had no fields; it was skipped silently.
	EmptySkipped
	// InsertFailed means the insert statement failed; the row was dropped.
	InsertFailed
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case ParseSkipped:
		return "parse_skipped"
	case EmptySkipped:
		return "empty_skipped"
	case InsertFailed:
		return "insert_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// RowResult is reported for every record the loader consumes.
type RowResult struct {
	// Line is the input line the record started on, when the reader knows it.
	Line    int
	Outcome Outcome
	// Err is set for ParseSkipped and InsertFailed.
	Err error
}

// Summary aggregates RowResults.
type Summary struct {
	// Attempted counts rows handed to Insert (Inserted + InsertFailed). It
	// drives the commit threshold.
	Attempted    int64
	Inserted     int64
	ParseSkipped int64
	EmptySkipped int64
	InsertFailed int64
	// Batches counts committed transactions.
	Batches int64
	Elapsed time.Duration
}

func (s *Summary) add(o Outcome) {
	switch o {
	case Inserted:
		s.Attempted++
		s.Inserted++
	case InsertFailed:
		s.Attempted++
		s.InsertFailed++
	case ParseSkipped:
		s.ParseSkipped++
	case EmptySkipped:
		s.EmptySkipped++
	}
}

// BatchStats describes one committed batch.
type BatchStats struct {
	Seq       int64
	Attempted int64
	Inserted  int64
	Duration  time.Duration
}

// Beginner opens insert transactions. Repository satisfies it.
type Beginner interface {
	Begin(ctx context.Context, columns []string) (Batch, error)
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Columns are the target column names; each record is truncated to
	// len(Columns) fields.
	Columns []string
	// BatchSize is the number of attempted rows per transaction.
	BatchSize int
	// Logger receives progress and per-record warnings. Nil means slog.Default().
	Logger *slog.Logger
	// OnRow, if set, is called for every consumed record.
	OnRow func(RowResult)
	// OnBatch, if set, is called after every successful commit.
	OnBatch func(BatchStats)
}

// Load streams records from rd into b. The header must already have been
// consumed from rd.
//
// Parse errors (*parser.RecordError) are logged and skipped. Records with no
// fields are skipped silently. Insert failures drop the row and keep the
// batch open. Begin and commit failures abort the load; rows committed by
// earlier batches stay committed. On cancellation the open batch is rolled
// back and ctx.Err() is returned alongside the partial summary.
func Load(ctx context.Context, rd parser.RecordReader, b Beginner, opt LoadOptions) (Summary, error) {
	if opt.BatchSize <= 0 {
		return Summary{}, fmt.Errorf("batchSize must be > 0")
	}
	if len(opt.Columns) == 0 {
		return Summary{}, fmt.Errorf("load: at least one column is required")
	}
	if rd == nil || b == nil {
		return Summary{}, fmt.Errorf("load: reader and repository must not be nil")
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	liner, _ := rd.(interface{ Line() int })

	var (
		sum         Summary
		width       = len(opt.Columns)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
		inBatch     int64
		insBatch    int64
		tx          Batch
		row         = make([]string, 0, width)
	)

	report := func(res RowResult) {
		sum.add(res.Outcome)
		if opt.OnRow != nil {
			opt.OnRow(res)
		}
	}

	begin := func() error {
		var err error
		tx, err = b.Begin(ctx, opt.Columns)
		if err != nil {
			tx = nil
			return fmt.Errorf("begin batch: %w", err)
		}
		inBatch, insBatch = 0, 0
		return nil
	}

	commit := func() error {
		if tx == nil {
			return nil
		}
		err := tx.Commit()
		tx = nil
		if err != nil {
			log.Error("loader: commit failed", "batch", sum.Batches+1, "attempted", inBatch, "err", err)
			return fmt.Errorf("commit batch: %w", err)
		}

		sum.Batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(sum.Attempted-lastTotal) / sinceLast.Seconds()
		}
		log.Info("batch committed",
			"batch", sum.Batches,
			"rps", fmt.Sprintf("%.0f", rps),
			"attempted", inBatch,
			"inserted", insBatch,
			"total_attempted", sum.Attempted,
			"total_inserted", sum.Inserted,
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
			"since_last", sinceLast.Truncate(time.Millisecond),
		)
		if opt.OnBatch != nil {
			opt.OnBatch(BatchStats{Seq: sum.Batches, Attempted: inBatch, Inserted: insBatch, Duration: sinceLast})
		}
		lastFlushTS = now
		lastTotal = sum.Attempted
		return nil
	}

	abort := func(cause error) (Summary, error) {
		if tx != nil {
			if err := tx.Rollback(); err != nil {
				log.Warn("loader: rollback failed", "err", err)
			}
			tx = nil
		}
		sum.Elapsed = time.Since(start)
		return sum, cause
	}

	if err := begin(); err != nil {
		return abort(err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var re *parser.RecordError
			if errors.As(err, &re) {
				log.Warn("skipped record", "line", re.Line, "err", re.Err)
				report(RowResult{Line: re.Line, Outcome: ParseSkipped, Err: err})
				continue
			}
			return abort(fmt.Errorf("read record: %w", err))
		}

		line := 0
		if liner != nil {
			line = liner.Line()
		}
		if len(rec) == 0 {
			report(RowResult{Line: line, Outcome: EmptySkipped})
			continue
		}

		row = ShapeRow(row[:0], rec, width)
		if err := tx.Insert(ctx, row); err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return abort(cerr)
			}
			log.Debug("insert failed", "line", line, "err", err)
			report(RowResult{Line: line, Outcome: InsertFailed, Err: err})
		} else {
			insBatch++
			report(RowResult{Line: line, Outcome: Inserted})
		}
		inBatch++

		if inBatch >= int64(opt.BatchSize) {
			if err := commit(); err != nil {
				return abort(err)
			}
			if err := begin(); err != nil {
				return abort(err)
			}
		}
	}

	if err := commit(); err != nil {
		return abort(err)
	}
	sum.Elapsed = time.Since(start)
	log.Info("loader: input exhausted",
		"total_attempted", sum.Attempted,
		"total_inserted", sum.Inserted,
		"batches", sum.Batches,
	)
	return sum, nil
}

// ShapeRow appends the trimmed first min(len(rec), width) fields of rec to dst.
// Short records stay short.
func ShapeRow(dst, rec []string, width int) []string {
	n := len(rec)
	if n > width {
		n = width
	}
	for _, v := range rec[:n] {
		dst = append(dst, strings.TrimSpace(v))
	}
	return dst
}
