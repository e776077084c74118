package prompush

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/metrics"
)

func TestNewBackend_RequiresGatewayURL(t *testing.T) {
	if _, err := NewBackend("job", ""); err == nil {
		t.Fatal("expected error for empty gateway URL")
	}
}

func TestBackend_FlushPushesToGateway(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("sqlite2es", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	metrics.RecordCount(b, metrics.MoviesTotal, 10)
	metrics.RecordCount(b, metrics.BulkItemErrorsTotal, 2)
	metrics.RecordPhase(b, "load", nil, 0)

	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("push method = %s, want PUT", gotMethod)
	}
	if gotPath != "/metrics/job/sqlite2es" {
		t.Errorf("push path = %s", gotPath)
	}
	// The push body is protobuf-delimited, but metric names appear in it verbatim.
	for _, name := range []string{metrics.MoviesTotal, metrics.BulkItemErrorsTotal, metrics.PhaseTotal} {
		if !strings.Contains(string(gotBody), name) {
			t.Errorf("push body missing metric %s", name)
		}
	}
}

func TestBackend_FlushHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	b, err := NewBackend("sqlite2es", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Flush(ctx); err == nil {
		t.Error("expected an error pushing with a canceled context")
	}
}

func TestBackend_IgnoresUnknownMetricNames(t *testing.T) {
	b, err := NewBackend("sqlite2es", "http://pushgateway.invalid")
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter("someone_elses_metric", nil, 1)
	b.ObserveDuration("someone_elses_duration", nil, 1)
}

func TestBackend_DefaultJobName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	b, err := NewBackend("", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(gotPath, "/job/sqlite2es") {
		t.Errorf("default job name missing from path: %s", gotPath)
	}
}
