package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaius/standards-registry/pkg/registry"
)

const testArtifact = "core_standards.md"

func newTestWatcher(t *testing.T) (*Watcher, *registry.Controller, string, context.CancelFunc) {
	t.Helper()
	repo := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := registry.New(repo, registry.WithLogger(logger))
	require.NoError(t, err)

	w, err := New(c, []string{testArtifact}, 50*time.Millisecond, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return w, c, repo, cancel
}

func writeArtifact(t *testing.T, repo, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(repo, testArtifact), []byte(content), 0o644))
}

func TestWatcher_RecordsSettledChange(t *testing.T) {
	_, c, repo, _ := newTestWatcher(t)

	writeArtifact(t, repo, "first draft\n")

	require.Eventually(t, func() bool {
		return len(c.Versions()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	v := c.Versions()[0]
	assert.Equal(t, "1.0.0", v.VersionID)
	assert.Equal(t, testArtifact, v.File)
	assert.Equal(t, "Automatic version from file change", v.Description)

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, "watcher", history[0].User)
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	_, c, repo, _ := newTestWatcher(t)

	writeArtifact(t, repo, "content\n")
	require.Eventually(t, func() bool {
		return len(c.Versions()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	// Re-save without edits: the hash matches the recorded version.
	writeArtifact(t, repo, "content\n")
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, c.Versions(), 1)

	// An actual edit is recorded as a patch bump.
	writeArtifact(t, repo, "content, revised\n")
	require.Eventually(t, func() bool {
		return len(c.Versions()) == 2
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "1.0.1", c.Versions()[1].VersionID)
}

func TestWatcher_IgnoresUnregisteredFiles(t *testing.T) {
	_, c, repo, _ := newTestWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(repo, "notes.md"), []byte("scratch\n"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, c.Versions())
}

func TestNew_RequiresArtifacts(t *testing.T) {
	repo := t.TempDir()
	c, err := registry.New(repo)
	require.NoError(t, err)

	_, err = New(c, nil, 0, nil)
	assert.Error(t, err)
}
