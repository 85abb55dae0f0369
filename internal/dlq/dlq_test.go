package dlq_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookpipe/hookpipe/internal/dlq"
	"github.com/hookpipe/hookpipe/internal/models"
)

func TestNewQueue(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("creates queue with valid path", func(t *testing.T) {
		queue, err := dlq.NewQueue(tempDir)

		require.NoError(t, err)
		assert.NotNil(t, queue)

		info, err := os.Stat(tempDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("creates nested directories", func(t *testing.T) {
		nestedPath := filepath.Join(tempDir, "nested", "path", "dlq")
		queue, err := dlq.NewQueue(nestedPath)

		require.NoError(t, err)
		assert.NotNil(t, queue)

		info, err := os.Stat(nestedPath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestQueue_Write(t *testing.T) {
	tempDir := t.TempDir()

	queue, err := dlq.NewQueue(tempDir)
	require.NoError(t, err)

	failed := &dlq.FailedDelivery{
		Timestamp: time.Now().UTC(),
		EventID:   "evt-1",
		AccountID: "acct-1",
		Destination: &models.Destination{
			ID:        "dest-1",
			AccountID: "acct-1",
			URL:       "https://example.com/hook",
		},
		Payload: json.RawMessage(`{"a":1}`),
		Error:   "connection refused",
		Reason:  dlq.ReasonStorageError,
	}

	require.NoError(t, queue.Write(context.Background(), failed))
	require.NoError(t, queue.Write(context.Background(), failed))

	assert.Equal(t, uint64(2), queue.Written())

	// Entries land in today's file as one JSON document per line
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(tempDir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	var count int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var got dlq.FailedDelivery
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
		assert.Equal(t, "evt-1", got.EventID)
		assert.Equal(t, dlq.ReasonStorageError, got.Reason)
		count++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 2, count)
}

func TestQueue_NilWrite(t *testing.T) {
	var queue *dlq.Queue
	assert.NoError(t, queue.Write(context.Background(), &dlq.FailedDelivery{}))
}

func TestQueue_Stats(t *testing.T) {
	tempDir := t.TempDir()

	queue, err := dlq.NewQueue(tempDir)
	require.NoError(t, err)

	require.NoError(t, queue.Write(context.Background(), &dlq.FailedDelivery{
		EventID: "evt-1",
		Reason:  dlq.ReasonStorageError,
	}))

	stats := queue.Stats(context.Background())
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, "file", stats["backend"])
	assert.Equal(t, uint64(1), stats["written"])
	assert.Equal(t, tempDir, stats["path"])
}

func TestQueue_NilStats(t *testing.T) {
	var queue *dlq.Queue
	stats := queue.Stats(context.Background())
	assert.Equal(t, false, stats["enabled"])
}
