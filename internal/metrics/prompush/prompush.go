// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A one-shot batch job has nothing for Prometheus to
// scrape, so collected metrics are pushed once at the end of the run. All
// Prometheus-specific dependencies stay inside this package.
package prompush

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/metrics"
)

// Backend collects migration metrics in a private registry and pushes them
// to a Pushgateway on Flush.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	phaseCounter   *prometheus.CounterVec
	phaseDuration  *prometheus.SummaryVec
	movieCounter   prometheus.Counter
	docCounter     prometheus.Counter
	bulkErrCounter prometheus.Counter
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "sqlite2es"
	}

	reg := prometheus.NewRegistry()

	phaseCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.PhaseTotal,
			Help: "Pipeline phase executions, partitioned by phase and status.",
		},
		[]string{"phase", "status"},
	)
	phaseDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.PhaseDuration,
			Help:       "Pipeline phase durations in seconds, partitioned by phase and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"phase", "status"},
	)
	movieCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metrics.MoviesTotal,
		Help: "Movies extracted from the source database.",
	})
	docCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metrics.DocumentsTotal,
		Help: "Documents submitted to the bulk endpoint.",
	})
	bulkErrCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metrics.BulkItemErrorsTotal,
		Help: "Documents rejected per-item in bulk responses.",
	})

	for _, c := range []prometheus.Collector{phaseCounter, phaseDuration, movieCounter, docCounter, bulkErrCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: failed to register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		phaseCounter:   phaseCounter,
		phaseDuration:  phaseDuration,
		movieCounter:   movieCounter,
		docCounter:     docCounter,
		bulkErrCounter: bulkErrCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, labels metrics.Labels, delta float64) {
	switch name {
	case metrics.PhaseTotal:
		b.phaseCounter.WithLabelValues(labels["phase"], labels["status"]).Add(delta)
	case metrics.MoviesTotal:
		b.movieCounter.Add(delta)
	case metrics.DocumentsTotal:
		b.docCounter.Add(delta)
	case metrics.BulkItemErrorsTotal:
		b.bulkErrCounter.Add(delta)
	}
}

func (b *Backend) ObserveDuration(name string, labels metrics.Labels, d time.Duration) {
	if name != metrics.PhaseDuration {
		return
	}
	b.phaseDuration.WithLabelValues(labels["phase"], labels["status"]).Observe(d.Seconds())
}

// Flush pushes the registry to the Pushgateway.
func (b *Backend) Flush(ctx context.Context) error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		PushContext(ctx)
}
