package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/metrics"
	"git.home.luguber.info/inful/exportmap/internal/preview"
	"git.home.luguber.info/inful/exportmap/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr     string `help:"Listen address" default:":3000"`
	Static   string `help:"Directory served under /static/, relative to the config file" default:"static"`
	Defaults string `help:"JSON default path table supplied by the host framework" type:"existingfile"`
	NoWatch  bool   `name:"no-watch" help:"Do not rebuild when sources change"`
}

func (c *ServeCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rec := metrics.NewPrometheusRecorder(nil)
	s, err := loadSite(ctx, cfg, c.Defaults, rec)
	if err != nil {
		return err
	}
	renderer, err := s.Renderer()
	if err != nil {
		return err
	}

	srv := preview.New(s.Table, renderer, preview.Options{
		StaticDir: cfg.Resolve(c.Static),
		Metrics:   rec.HTTPHandler(),
	})

	if !c.NoWatch {
		var w *watch.Watcher
		w, err = watch.New(func(ctx context.Context, _ string) error {
			cfg = reloadConfig(root, cfg)
			next, err := loadSite(ctx, cfg, c.Defaults, rec)
			if err != nil {
				return err
			}
			r, err := next.Renderer()
			if err != nil {
				return err
			}
			srv.Update(next.Table, r)
			trackSources(w, cfg, next)
			return nil
		}, watchOptions(root, cfg, s))
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("File watcher stopped; preview will not rebuild", logfields.Error(err))
			}
		}()
	}
	return srv.ListenAndServe(ctx, c.Addr)
}
