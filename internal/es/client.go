// Package es provides the Elasticsearch client used to load documents.
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/metrics"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/models"
	"github.com/dukiAleksey/sqlite2elasticsearch/pkg/utils"
)

// ErrIndexExists is returned by CreateIndex when the target index already exists.
var ErrIndexExists = errors.New("index already exists")

// maxLoggedError caps the error body attached to a log entry; mapper
// exceptions can echo the whole offending document.
const maxLoggedError = 512

// Client talks to an Elasticsearch cluster over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger // optional; when set, per-document index errors are logged here
	metrics metrics.Backend
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the diagnostic sink for per-document index errors.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithMetrics sets the metrics backend per-document index errors are counted
// against; the default discards everything.
func WithMetrics(b metrics.Backend) ClientOption {
	return func(c *Client) { c.metrics = b }
}

// NewClient creates a client for the cluster at baseURL. No request timeout
// is set; cancellation comes from the caller's context.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		metrics: metrics.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bulkAction is the metadata line preceding each document in the payload.
type bulkAction struct {
	Index bulkActionIndex `json:"index"`
}

type bulkActionIndex struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// bulkResponse is the subset of the _bulk response the client inspects.
type bulkResponse struct {
	Errors bool       `json:"errors"`
	Items  []bulkItem `json:"items"`
}

type bulkItem struct {
	Index bulkItemIndex `json:"index"`
}

type bulkItemIndex struct {
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error"`
}

func (i bulkItemIndex) failed() bool {
	return len(i.Error) > 0 && string(i.Error) != "null"
}

// EncodeBulk renders the NDJSON _bulk payload for docs: an action line then
// the document line per entry, every line newline-terminated. Exposed so the
// dump command can emit the exact payload a run would submit.
func EncodeBulk(index string, docs []*models.SearchDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := bulkAction{Index: bulkActionIndex{Index: index, ID: doc.ID}}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// Bulk submits docs as a single _bulk request against index. Per-document
// failures reported in the response items are logged and never fail the
// call; transport-level failures (connection error, non-2xx status,
// undecodable response) are returned as errors.
func (c *Client) Bulk(ctx context.Context, index string, docs []*models.SearchDocument) error {
	payload, err := EncodeBulk(index, docs)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/_bulk", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build bulk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bulk request returned %d: %s", resp.StatusCode, utils.Truncate(string(b), maxLoggedError))
	}

	var result bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}

	var failed int64
	for _, item := range result.Items {
		if !item.Index.failed() {
			continue
		}
		failed++
		if c.logger != nil {
			c.logger.Error("failed to index document",
				zap.String("id", item.Index.ID),
				zap.Int("status", item.Index.Status),
				zap.String("error", utils.Truncate(string(item.Index.Error), maxLoggedError)),
			)
		}
	}
	metrics.RecordCount(c.metrics, metrics.BulkItemErrorsTotal, failed)
	return nil
}

// esError is the envelope Elasticsearch wraps request failures in.
type esError struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// CreateIndex creates the named index; mapping may be nil for server
// defaults. Returns ErrIndexExists when the index is already there so
// callers can treat re-runs as a no-op.
func (c *Client) CreateIndex(ctx context.Context, name string, mapping []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/"+name, bytes.NewReader(mapping))
	if err != nil {
		return fmt.Errorf("failed to build create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	var e esError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Type == "resource_already_exists_exception" {
		return ErrIndexExists
	}
	return fmt.Errorf("create index returned %d: %s", resp.StatusCode, utils.Truncate(string(body), maxLoggedError))
}
