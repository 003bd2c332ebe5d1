// Package watch triggers rebuilds when page or content sources change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
)

// Reasons passed to RebuildFunc.
const (
	ReasonChange = "change"
	ReasonRescan = "rescan"
)

// RebuildFunc rebuilds the site. Errors are logged; watching continues.
type RebuildFunc func(ctx context.Context, reason string) error

// Options configure a Watcher.
type Options struct {
	// Dirs are watched recursively. Missing dirs are skipped.
	Dirs []string
	// Files are watched individually, through their parent directory.
	Files    []string
	Debounce time.Duration
	// RescanInterval schedules periodic rebuilds; zero disables them.
	RescanInterval time.Duration
}

// Watcher runs RebuildFunc after bursts of filesystem events settle.
type Watcher struct {
	opts    Options
	rebuild RebuildFunc
	fs      *fsnotify.Watcher
	sched   gocron.Scheduler
	files   map[string]bool
	trigger chan string

	mu   sync.Mutex
	dirs []string
}

// New creates a watcher. Run starts it.
func New(rebuild RebuildFunc, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		opts:    opts,
		rebuild: rebuild,
		fs:      fw,
		files:   map[string]bool{},
		trigger: make(chan string, 1),
		dirs:    append([]string(nil), opts.Dirs...),
	}
	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = true
	}
	return w, nil
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fs.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	for _, dir := range w.watchedDirs() {
		if err := w.addTree(dir); err != nil {
			return err
		}
	}
	for f := range w.files {
		if err := w.fs.Add(filepath.Dir(f)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", f, err)
		}
	}

	if w.opts.RescanInterval > 0 {
		if err := w.startScheduler(); err != nil {
			return err
		}
		defer func() {
			if err := w.sched.Shutdown(); err != nil {
				slog.Warn("Failed to stop rescan scheduler", logfields.Error(err))
			}
		}()
	}

	slog.Info("Watching for changes", slog.Any("dirs", w.watchedDirs()), slog.Duration("debounce", w.opts.Debounce))
	return w.loop(ctx)
}

// Track starts watching dirs that are not watched yet, for example content
// sources added by a config edit. It may be called from a RebuildFunc.
func (w *Watcher) Track(dirs []string) error {
	for _, dir := range dirs {
		w.mu.Lock()
		known := false
		for _, d := range w.dirs {
			if filepath.Clean(d) == filepath.Clean(dir) {
				known = true
				break
			}
		}
		if !known {
			w.dirs = append(w.dirs, dir)
		}
		w.mu.Unlock()
		if known {
			continue
		}
		if err := w.addTree(dir); err != nil {
			return err
		}
		slog.Info("Watching new directory", logfields.Path(dir))
	}
	return nil
}

func (w *Watcher) watchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.dirs...)
}

func (w *Watcher) startScheduler() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.RescanInterval),
		gocron.NewTask(w.fire, ReasonRescan),
		gocron.WithName("rescan"),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create rescan job: %w", err)
	}
	s.Start()
	w.sched = s
	return nil
}

// fire requests a rebuild; a pending request absorbs it.
func (w *Watcher) fire(reason string) {
	select {
	case w.trigger <- reason:
	default:
	}
}

func (w *Watcher) loop(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			slog.Debug("Change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			timer.Reset(w.opts.Debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", logfields.Error(err))
		case <-timer.C:
			w.run(ctx, ReasonChange)
		case reason := <-w.trigger:
			w.run(ctx, reason)
		}
	}
}

func (w *Watcher) run(ctx context.Context, reason string) {
	start := time.Now()
	if err := w.rebuild(ctx, reason); err != nil {
		slog.Error("Rebuild failed", slog.String("reason", reason), logfields.Error(err))
		return
	}
	slog.Info("Rebuilt", slog.String("reason", reason), logfields.Duration(time.Since(start)))
}

// relevant filters out metadata-only events, hidden files, editor
// temporaries and files in watched parents that are not watched themselves.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	if w.files[abs] {
		return true
	}
	for _, dir := range w.watchedDirs() {
		d, err := filepath.Abs(dir)
		if err == nil && (abs == d || strings.HasPrefix(abs, d+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fs.Add(p)
	})
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Watch directory not found", logfields.Path(root))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return nil
}
