package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	reasons []string
	ch      chan string
}

func newRecorder() *recorder { return &recorder{ch: make(chan string, 16)} }

func (r *recorder) rebuild(_ context.Context, reason string) error {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
	r.ch <- reason
	return nil
}

func (r *recorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case reason := <-r.ch:
		return reason
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild")
		return ""
	}
}

func startWatcher(t *testing.T, rec *recorder, opts Options) *Watcher {
	t.Helper()
	w, err := New(rec.rebuild, opts)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// Let Run register its watches.
	time.Sleep(100 * time.Millisecond)
	return w
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, rec, Options{Dirs: []string{dir}, Debounce: 150 * time.Millisecond})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "post.mdx"), []byte{byte('a' + i)}, 0o600))
	}
	require.Equal(t, ReasonChange, rec.wait(t))

	select {
	case extra := <-rec.ch:
		t.Fatalf("unexpected second rebuild: %s", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, rec, Options{Dirs: []string{dir}, Debounce: 50 * time.Millisecond})

	sub := filepath.Join(dir, "blog")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Equal(t, ReasonChange, rec.wait(t))

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "new.mdx"), []byte("# New"), 0o600))
	require.Equal(t, ReasonChange, rec.wait(t))
}

func TestWatcher_TrackAddsDirectory(t *testing.T) {
	dir, extra := t.TempDir(), t.TempDir()
	rec := newRecorder()
	w := startWatcher(t, rec, Options{Dirs: []string{dir}, Debounce: 50 * time.Millisecond})

	require.NoError(t, w.Track([]string{dir, extra}))
	require.Equal(t, []string{dir, extra}, w.watchedDirs())

	require.NoError(t, os.WriteFile(filepath.Join(extra, "late.mdx"), []byte("# Late"), 0o600))
	require.Equal(t, ReasonChange, rec.wait(t))
}

func TestWatcher_Rescan(t *testing.T) {
	rec := newRecorder()
	startWatcher(t, rec, Options{
		Dirs:           []string{filepath.Join(t.TempDir(), "missing")},
		Debounce:       time.Second,
		RescanInterval: 200 * time.Millisecond,
	})
	require.Equal(t, ReasonRescan, rec.wait(t))
}

func TestWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "exportmap.yaml")
	w, err := New(func(context.Context, string) error { return nil }, Options{Dirs: []string{dir}, Files: []string{cfg}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fs.Close() })

	require.True(t, w.relevant(fsnotify.Event{Name: filepath.Join(dir, "a.mdx"), Op: fsnotify.Write}))
	require.True(t, w.relevant(fsnotify.Event{Name: cfg, Op: fsnotify.Write}))
	require.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(filepath.Dir(cfg), "other.yaml"), Op: fsnotify.Write}))
	require.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(dir, ".a.mdx.swp"), Op: fsnotify.Write}))
	require.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(dir, "a.mdx"), Op: fsnotify.Chmod}))
}
