// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from an import run.
//
// The default backend is a no-op, so the helpers are always safe to call.
// Concrete systems live in subpackages (prompush, datadog) and are installed
// with SetBackend by the command wiring.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers below.
const (
	StepTotal        = "csv2fts_step_total"
	StepDuration     = "csv2fts_step_duration_seconds"
	RowsTotal        = "csv2fts_rows_total"
	BatchesTotal     = "csv2fts_batches_total"
	BatchDuration    = "csv2fts_batch_duration_seconds"
	BatchRowsInBatch = "csv2fts_batch_rows"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/size style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep records latency and success/failure for one pipeline stage
// ("sniff", "header", "create_table", "load").
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments the per-outcome row counter. Kinds match the loader's
// outcome names: "inserted", "parse_skipped", "empty_skipped",
// "insert_failed".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatch counts one committed transaction and observes its duration and
// size.
func RecordBatch(job string, rows int, d time.Duration) {
	lbls := Labels{"job": job}
	b := current()
	b.IncCounter(BatchesTotal, 1, lbls)
	b.ObserveHistogram(BatchDuration, d.Seconds(), lbls)
	b.ObserveHistogram(BatchRowsInBatch, float64(rows), lbls)
}
