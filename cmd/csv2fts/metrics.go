package main

import (
	"fmt"
	"log/slog"

	"csv2fts/internal/metrics"
	"csv2fts/internal/metrics/datadog"
	"csv2fts/internal/metrics/prompush"
)

// MetricsFlags select the metrics backend for an import.
type MetricsFlags struct {
	MetricsBackend string   `name:"metrics-backend" default:"none" enum:"none,pushgateway,datadog" env:"METRICS_BACKEND" help:"Metrics backend (${enum})."`
	PushgatewayURL string   `name:"pushgateway-url" default:"http://localhost:9091" env:"PUSHGATEWAY_URL" help:"Pushgateway base URL."`
	DogstatsdAddr  string   `name:"dogstatsd-addr" default:"127.0.0.1:8125" env:"DD_DOGSTATSD_ADDR" help:"DogStatsD address."`
	MetricsTags    []string `name:"metrics-tag" help:"Extra Datadog tag (key:value); repeatable."`
}

// setupMetrics installs the selected backend and returns a function that
// flushes it. The returned function is never nil.
func setupMetrics(f MetricsFlags, job, runID string, log *slog.Logger) (func(), error) {
	var b metrics.Backend
	switch f.MetricsBackend {
	case "", "none":
		log.Debug("metrics: disabled")
		return func() {}, nil

	case "pushgateway":
		pb, err := prompush.NewBackend(job, f.PushgatewayURL)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = pb.WithRunID(runID)

	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       f.DogstatsdAddr,
			Namespace:  "csv2fts",
			GlobalTags: append([]string{"job:" + job}, f.MetricsTags...),
		})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = db

	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", f.MetricsBackend)
	}

	log.Info("metrics: enabled", "backend", f.MetricsBackend, "job", job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush error", "err", err)
		}
	}, nil
}
