package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetentionWorker_DisabledWithoutRetention(t *testing.T) {
	store := newTestStore(t)
	worker := NewRetentionWorker(store, 0, discardLogger())

	done := make(chan struct{})
	go func() {
		worker.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker should return immediately")
	}
}

func TestRetentionWorker_CleanupDeletesOldEvents(t *testing.T) {
	store := newTestStore(t)
	worker := NewRetentionWorker(store, 30, discardLogger())

	appendEvent(t, store, "create", "1.0.0", "success", time.Now().Add(-31*24*time.Hour))
	appendEvent(t, store, "activate", "1.0.0", "success", time.Now())

	worker.cleanup()

	events, _, total, err := store.List(10, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "activate", events[0].Action)
}

func TestRetentionWorker_StopsOnContextCancel(t *testing.T) {
	store := newTestStore(t)
	worker := NewRetentionWorker(store, 30, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker should stop when the context is cancelled")
	}
}
