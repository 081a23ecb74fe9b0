package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string, calls *atomic.Int32) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := NewInboxWatcher(dir, func(context.Context) { calls.Add(1) }, WithSettle(50*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Give fsnotify time to register the directory.
	time.Sleep(50 * time.Millisecond)
	return cancel
}

func TestInboxWatcher_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, dir, &calls)

	for _, name := range []string{"a.pdf", "b.PDF", "c.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInboxWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, dir, &calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestInboxWatcher_MissingDir(t *testing.T) {
	w := NewInboxWatcher(filepath.Join(t.TempDir(), "missing"), func(context.Context) {})
	assert.Error(t, w.Run(context.Background()))
}

func TestInboxWatcher_ReturnsOnCancel(t *testing.T) {
	w := NewInboxWatcher(t.TempDir(), func(context.Context) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, w.Run(ctx), context.Canceled)
}
