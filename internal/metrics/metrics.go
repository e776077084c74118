// Package metrics provides a backend-agnostic abstraction for recording
// operational metrics from migration runs.
//
// The package exposes a narrow interface (Backend) covering counters and
// duration observations, with a no-op implementation as the default so
// metrics stay optional. Concrete systems live in subpackages (prompush for
// the Prometheus Pushgateway) and are injected where needed; nothing else in
// the codebase imports a metrics client directly.
package metrics

import (
	"context"
	"time"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Metric names recorded by the pipeline.
const (
	PhaseTotal          = "migrate_phase_total"
	PhaseDuration       = "migrate_phase_duration_seconds"
	MoviesTotal         = "migrate_movies_total"
	DocumentsTotal      = "migrate_documents_total"
	BulkItemErrorsTotal = "migrate_bulk_item_errors_total"
)

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, labels Labels, delta float64)
	// ObserveDuration records a duration-style value.
	ObserveDuration(name string, labels Labels, d time.Duration)
	// Flush pushes collected metrics if the backend needs it (e.g. Pushgateway).
	Flush(ctx context.Context) error
}

// Nop returns a backend that discards everything.
func Nop() Backend { return nopBackend{} }

type nopBackend struct{}

func (nopBackend) IncCounter(string, Labels, float64)            {}
func (nopBackend) ObserveDuration(string, Labels, time.Duration) {}
func (nopBackend) Flush(context.Context) error                   { return nil }

// RecordPhase measures one pipeline phase: an execution count partitioned by
// outcome, plus the duration.
func RecordPhase(b Backend, phase string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"phase": phase, "status": status}
	b.IncCounter(PhaseTotal, lbls, 1)
	b.ObserveDuration(PhaseDuration, lbls, d)
}

// RecordCount increments a record-level counter (movies read, documents
// sent, bulk items rejected). Non-positive deltas are ignored.
func RecordCount(b Backend, name string, delta int64) {
	if delta <= 0 {
		return
	}
	b.IncCounter(name, nil, float64(delta))
}
