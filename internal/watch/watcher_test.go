package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func startWatcher(t *testing.T, roots ...string) *atomic.Int32 {
	t.Helper()
	var count atomic.Int32
	w, err := NewWatcher(roots, testDebounce, func(context.Context) { count.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not ready")
	}
	return &count
}

func TestWatcher_TriggersOnMarkdownChange(t *testing.T) {
	root := t.TempDir()
	count := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "guide.md"), []byte("# Guide"), 0o644))
	require.Eventually(t, func() bool { return count.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresNonMarkdownChange(t *testing.T) {
	root := t.TempDir()
	count := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "values.yaml"), []byte("a: b"), 0o644))
	time.Sleep(10 * testDebounce)
	require.Zero(t, count.Load())
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	count := startWatcher(t, root)

	for i := range 5 {
		name := filepath.Join(root, "page-"+string(rune('a'+i))+".md")
		require.NoError(t, os.WriteFile(name, []byte("# Page"), 0o644))
	}
	require.Eventually(t, func() bool { return count.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(10 * testDebounce)
	require.Equal(t, int32(1), count.Load())
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	count := startWatcher(t, root)

	sub := filepath.Join(root, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return count.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644))
	require.Eventually(t, func() bool { return count.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	count := startWatcher(t, filepath.Join(root, "absent"), root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.MD"), []byte("# Readme"), 0o644))
	require.Eventually(t, func() bool { return count.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestNewWatcher_RequiresTrigger(t *testing.T) {
	_, err := NewWatcher([]string{t.TempDir()}, time.Second, nil)
	require.Error(t, err)
}

func TestIsMarkdown(t *testing.T) {
	require.True(t, isMarkdown("/src/guide.md"))
	require.True(t, isMarkdown("/src/README.MD"))
	require.False(t, isMarkdown("/src/guide.MD"))
	require.False(t, isMarkdown("/src/values.yaml"))
}
