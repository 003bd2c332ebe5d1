package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/exportmap/internal/config"
	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/metrics"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
	"git.home.luguber.info/inful/exportmap/internal/site"
)

// loadConfig loads the root config and applies its logging settings.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	applyLogging(cfg)
	return cfg, nil
}

// reloadConfig loads the config again for watch rebuilds, keeping prev when
// the edited file does not load.
func reloadConfig(root *CLI, prev *config.Config) *config.Config {
	next, err := config.Load(root.Config)
	if err != nil {
		slog.Warn("Keeping previous configuration", logfields.Error(err))
		return prev
	}
	applyLogging(next)
	return next
}

// loadSite resolves the site, replacing the scanned defaults with the
// table in defaultsFile when given.
func loadSite(ctx context.Context, cfg *config.Config, defaultsFile string, rec metrics.Recorder) (*site.Site, error) {
	var defaults pathmap.Table
	if defaultsFile != "" {
		var err error
		if defaults, err = site.ReadDefaults(defaultsFile); err != nil {
			return nil, err
		}
		slog.Debug("Read default table", logfields.File(defaultsFile), logfields.Count(len(defaults)))
	}
	return site.Load(ctx, cfg, site.Options{Defaults: defaults, Recorder: rec})
}

// writeMetrics writes the textfile when monitoring.metrics_textfile is set.
func writeMetrics(cfg *config.Config, rec *metrics.PrometheusRecorder) {
	path := cfg.Resolve(cfg.Monitoring.MetricsTextfile)
	if path == "" {
		return
	}
	if err := rec.WriteTextfile(path); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}
