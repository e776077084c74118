package metrics

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordingBackend captures calls for assertions.
type recordingBackend struct {
	counters  map[string]float64
	labels    map[string]Labels
	durations map[string]time.Duration
	flushed   bool
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		counters:  make(map[string]float64),
		labels:    make(map[string]Labels),
		durations: make(map[string]time.Duration),
	}
}

func (r *recordingBackend) IncCounter(name string, labels Labels, delta float64) {
	r.counters[name] += delta
	r.labels[name] = labels
}

func (r *recordingBackend) ObserveDuration(name string, labels Labels, d time.Duration) {
	r.durations[name] = d
	r.labels[name] = labels
}

func (r *recordingBackend) Flush(context.Context) error {
	r.flushed = true
	return nil
}

func TestRecordPhase(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
	}{
		{"success status", nil, "success"},
		{"failure status", errors.New("load failed"), "failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newRecordingBackend()
			RecordPhase(b, "load", tt.err, 1500*time.Millisecond)
			if b.counters[PhaseTotal] != 1 {
				t.Errorf("phase counter = %v", b.counters[PhaseTotal])
			}
			if got := b.labels[PhaseTotal]["status"]; got != tt.wantStatus {
				t.Errorf("status label = %s, want %s", got, tt.wantStatus)
			}
			if got := b.labels[PhaseTotal]["phase"]; got != "load" {
				t.Errorf("phase label = %s", got)
			}
			if b.durations[PhaseDuration] != 1500*time.Millisecond {
				t.Errorf("duration = %v, want 1.5s", b.durations[PhaseDuration])
			}
		})
	}
}

func TestRecordCount(t *testing.T) {
	b := newRecordingBackend()
	RecordCount(b, MoviesTotal, 42)
	if b.counters[MoviesTotal] != 42 {
		t.Errorf("counter = %v, want 42", b.counters[MoviesTotal])
	}
	RecordCount(b, MoviesTotal, 0)
	RecordCount(b, MoviesTotal, -3)
	if b.counters[MoviesTotal] != 42 {
		t.Errorf("non-positive deltas must be ignored, counter = %v", b.counters[MoviesTotal])
	}
}

func TestNop(t *testing.T) {
	b := Nop()
	b.IncCounter(MoviesTotal, nil, 1)
	b.ObserveDuration(PhaseDuration, nil, 100*time.Millisecond)
	if err := b.Flush(context.Background()); err != nil {
		t.Errorf("nop flush should never fail: %v", err)
	}
}
