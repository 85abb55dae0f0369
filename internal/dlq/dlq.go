package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hookpipe/hookpipe/internal/models"
)

// Failure reasons recorded with DLQ entries.
const (
	ReasonStorageError = "storage_error"
)

// FailedDelivery is a delivery-log record that could not be persisted,
// parked for later inspection or replay.
type FailedDelivery struct {
	Timestamp   time.Time           `json:"timestamp"`
	EventID     string              `json:"event_id"`
	AccountID   string              `json:"account_id"`
	Destination *models.Destination `json:"destination"`
	Payload     json.RawMessage     `json:"payload"`
	Error       string              `json:"error"`
	Reason      string              `json:"reason"`
}

// Writer parks failed deliveries somewhere durable.
type Writer interface {
	Write(ctx context.Context, failed *FailedDelivery) error
}

// StatsReporter is implemented by backends that can report queue metrics.
type StatsReporter interface {
	Stats(ctx context.Context) map[string]interface{}
}

// Queue is a file-backed DLQ writing newline-delimited JSON to daily files.
// Single instance only; use the JetStream backend when running more than
// one service instance.
type Queue struct {
	basePath string
	mu       sync.Mutex
	written  uint64
}

// NewQueue creates a file-backed DLQ rooted at basePath.
func NewQueue(basePath string) (*Queue, error) {
	if basePath == "" {
		basePath = "/var/lib/hookpipe/dlq"
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create dlq directory: %w", err)
	}

	return &Queue{basePath: basePath}, nil
}

// Write appends the failed delivery to today's DLQ file.
func (q *Queue) Write(ctx context.Context, failed *FailedDelivery) error {
	if q == nil {
		return nil
	}

	data, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	path := filepath.Join(q.basePath, fmt.Sprintf("failed-%s.ndjson", time.Now().UTC().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open dlq file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write dlq entry: %w", err)
	}

	q.written++
	return nil
}

// Written reports how many entries this queue has accepted.
func (q *Queue) Written() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.written
}

// Stats reports file-backend queue metrics.
func (q *Queue) Stats(ctx context.Context) map[string]interface{} {
	if q == nil {
		return map[string]interface{}{
			"enabled": false,
			"backend": "file",
		}
	}

	return map[string]interface{}{
		"enabled": true,
		"backend": "file",
		"written": q.Written(),
		"path":    q.basePath,
	}
}
