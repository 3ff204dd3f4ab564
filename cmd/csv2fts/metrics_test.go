package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"csv2fts/internal/logging"
	"csv2fts/internal/metrics"
)

type discardBackend struct{}

func (discardBackend) IncCounter(string, float64, metrics.Labels)       {}
func (discardBackend) ObserveHistogram(string, float64, metrics.Labels) {}
func (discardBackend) Flush() error                                     { return nil }

func TestSetupMetrics_None(t *testing.T) {
	flush, err := setupMetrics(MetricsFlags{MetricsBackend: "none"}, "job", "r", logging.Discard())
	if err != nil || flush == nil {
		t.Fatalf("setupMetrics(none): flush nil=%t, err=%v", flush == nil, err)
	}
	flush()
}

func TestSetupMetrics_Pushgateway(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	t.Cleanup(func() { metrics.SetBackend(discardBackend{}) })

	flush, err := setupMetrics(MetricsFlags{MetricsBackend: "pushgateway", PushgatewayURL: srv.URL}, "people", "run-7", logging.Discard())
	if err != nil {
		t.Fatalf("setupMetrics: %v", err)
	}
	metrics.RecordBatch("people", 10, 5*time.Millisecond)
	flush()

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "PUT /metrics/job/people/run_id/run-7" {
		t.Fatalf("pushes = %v", paths)
	}
}

func TestSetupMetrics_Datadog(t *testing.T) {
	t.Cleanup(func() { metrics.SetBackend(discardBackend{}) })
	flush, err := setupMetrics(MetricsFlags{MetricsBackend: "datadog", DogstatsdAddr: "127.0.0.1:8125"}, "people", "r", logging.Discard())
	if err != nil {
		t.Fatalf("setupMetrics: %v", err)
	}
	flush()
}

func TestSetupMetrics_Errors(t *testing.T) {
	if _, err := setupMetrics(MetricsFlags{MetricsBackend: "pushgateway"}, "job", "r", logging.Discard()); err == nil {
		t.Fatalf("expected error for missing gateway URL")
	}
	_, err := setupMetrics(MetricsFlags{MetricsBackend: "graphite"}, "job", "r", logging.Discard())
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("err = %v", err)
	}
}
