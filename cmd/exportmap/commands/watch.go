package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/exportmap/internal/config"
	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/metrics"
	"git.home.luguber.info/inful/exportmap/internal/site"
	"git.home.luguber.info/inful/exportmap/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output   string `short:"o" help:"Output directory (overrides export.output)"`
	Defaults string `help:"JSON default path table supplied by the host framework" type:"existingfile"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	n, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer closeNotifier(n)

	rec := metrics.NewPrometheusRecorder(nil)
	opts := ExportOptions{Output: c.Output, DefaultsFile: c.Defaults, Notifier: n, Recorder: rec}
	res, err := RunExport(ctx, cfg, opts)
	if err != nil {
		return err
	}
	printSummary(g.out(), res)

	var w *watch.Watcher
	w, err = watch.New(func(ctx context.Context, _ string) error {
		cfg = reloadConfig(root, cfg)
		res, err := RunExport(ctx, cfg, opts)
		if err != nil {
			return err
		}
		printSummary(g.out(), res)
		trackSources(w, cfg, res.Site)
		return nil
	}, watchOptions(root, cfg, res.Site))
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// watchOptions watches the pages dir, every content dir and the config file.
func watchOptions(root *CLI, cfg *config.Config, s *site.Site) watch.Options {
	return watch.Options{
		Dirs:           watchDirs(cfg, s),
		Files:          []string{root.Config},
		Debounce:       cfg.Watch.DebounceDuration(),
		RescanInterval: cfg.Watch.RescanDuration(),
	}
}

func watchDirs(cfg *config.Config, s *site.Site) []string {
	return append([]string{cfg.PagesDir()}, s.ContentDirs()...)
}

// trackSources extends the watch to directories a reloaded config added.
func trackSources(w *watch.Watcher, cfg *config.Config, s *site.Site) {
	if err := w.Track(watchDirs(cfg, s)); err != nil {
		slog.Warn("Failed to watch new source directories", logfields.Error(err))
	}
}
