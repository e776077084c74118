// Package cli provides output helpers for the sqlite2es commands.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/es"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/models"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/pipeline"
)

// WriteBulkPayload writes the exact NDJSON payload a migration run would
// submit to _bulk for docs, so dump output can be inspected or replayed with
// curl as-is.
func WriteBulkPayload(w io.Writer, index string, docs []*models.SearchDocument) error {
	payload, err := es.EncodeBulk(index, docs)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// WriteRunSummary writes the end-of-run summary for the run command.
func WriteRunSummary(w io.Writer, index string, stats *pipeline.Stats) {
	fmt.Fprintf(w, "index:      %s\n", index)
	fmt.Fprintf(w, "movies:     %d   # rows extracted from the source\n", stats.Movies)
	fmt.Fprintf(w, "documents:  %d   # documents submitted to _bulk\n", stats.Documents)
	fmt.Fprintf(w, "duration:   %s\n", stats.Duration.Round(time.Millisecond))
}
