package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/exportmap/internal/config"
	"git.home.luguber.info/inful/exportmap/internal/export"
	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/history"
	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/metrics"
	"git.home.luguber.info/inful/exportmap/internal/notify"
	"git.home.luguber.info/inful/exportmap/internal/retry"
	"git.home.luguber.info/inful/exportmap/internal/site"
)

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Output   string `short:"o" help:"Output directory (overrides export.output)"`
	Defaults string `help:"JSON default path table supplied by the host framework" type:"existingfile"`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
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

	res, err := RunExport(ctx, cfg, ExportOptions{Output: e.Output, DefaultsFile: e.Defaults, Notifier: n})
	if err != nil {
		return err
	}
	printSummary(g.out(), res)
	return nil
}

// ExportOptions adjust RunExport.
type ExportOptions struct {
	Output       string
	DefaultsFile string
	Notifier     notify.Notifier
	Recorder     *metrics.PrometheusRecorder
}

// ExportResult is what one export produced.
type ExportResult struct {
	Site   *site.Site
	Report *export.Report
	// Run and Delta are set when history is enabled.
	Run   *history.Run
	Delta *history.Delta
}

// RunExport resolves and exports the site, records the run in history,
// publishes a notification and writes the metrics textfile.
func RunExport(ctx context.Context, cfg *config.Config, opts ExportOptions) (*ExportResult, error) {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NewPrometheusRecorder(nil)
	}
	defer writeMetrics(cfg, rec)

	res, err := runExport(ctx, cfg, opts, rec)
	switch {
	case errors.Is(err, context.Canceled):
		rec.IncBuildOutcome(metrics.OutcomeCanceled)
	case err != nil:
		rec.IncBuildOutcome(metrics.OutcomeFailed)
	case len(res.Report.Broken) > 0:
		rec.IncBuildOutcome(metrics.OutcomeWarning)
	default:
		rec.IncBuildOutcome(metrics.OutcomeSuccess)
	}
	return res, err
}

func runExport(ctx context.Context, cfg *config.Config, opts ExportOptions, rec metrics.Recorder) (*ExportResult, error) {
	s, err := loadSite(ctx, cfg, opts.DefaultsFile, rec)
	if err != nil {
		return nil, err
	}
	renderer, err := s.Renderer()
	if err != nil {
		return nil, err
	}

	out := cfg.OutputDir()
	if opts.Output != "" {
		out = opts.Output
	}
	exp := export.New(out, renderer, export.Options{
		TrailingSlash:     cfg.Export.TrailingSlash,
		Manifest:          cfg.Export.Manifest,
		FailOnBrokenLinks: cfg.Export.FailOnBrokenLinks,
		Recorder:          rec,
		Inputs:            cfg.Inputs(),
		Roots:             cfg.Roots(),
	})
	var rep *export.Report
	err = metrics.Stage(rec, metrics.StageExport, func() error {
		var err error
		rep, err = exp.Export(ctx, s.Table)
		return err
	})
	if err != nil {
		return nil, classifyExportError(err, out)
	}

	res := &ExportResult{Site: s, Report: rep}
	if cfg.History.Enabled {
		if err := recordHistory(ctx, cfg, res); err != nil {
			// The export itself succeeded; history is best effort.
			slog.Warn("Failed to record history", logfields.Error(err))
		}
	}

	if opts.Notifier != nil {
		ev := notify.Event{
			Fingerprint: rep.Fingerprint,
			Routes:      rep.Routes,
			Written:     len(rep.Written),
			Skipped:     len(rep.Skipped),
			BrokenLinks: len(rep.Broken),
			Output:      rep.Output,
			Timestamp:   time.Now().UTC(),
		}
		if res.Run != nil {
			ev.RunID = res.Run.ID
		}
		if res.Delta != nil {
			ev.Added, ev.Removed, ev.Changed = len(res.Delta.Added), len(res.Delta.Removed), len(res.Delta.Changed)
		}
		if err := opts.Notifier.Exported(ctx, ev); err != nil {
			slog.Warn("Failed to publish export event", logfields.Error(err))
		}
	}
	return res, nil
}

func recordHistory(ctx context.Context, cfg *config.Config, res *ExportResult) error {
	store, err := history.Open(cfg.Resolve(cfg.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	prev, ok, err := store.Latest(ctx)
	if err != nil {
		return err
	}
	outcome := string(metrics.OutcomeSuccess)
	if len(res.Report.Broken) > 0 {
		outcome = string(metrics.OutcomeWarning)
	}
	run, err := store.Record(ctx, res.Site.Table, outcome)
	if err != nil {
		return err
	}
	res.Run = &run
	if ok {
		d := history.Diff(prev.Table, res.Site.Table)
		res.Delta = &d
		if !d.Empty() {
			slog.Info("Route table changed since last run",
				slog.String("previous", prev.ID),
				slog.Any("added", d.Added),
				slog.Any("removed", d.Removed),
				slog.Any("changed", d.Changed))
		}
	}
	slog.Info("Recorded run", logfields.RunID(run.ID), logfields.Fingerprint(run.Fingerprint))
	return nil
}

func classifyExportError(err error, out string) error {
	if ferrors.IsClassified(err) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, export.ErrOutputOverlap) {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "refusing to export over input files").
			WithContext("output", out).
			UserAction().
			Build()
	}
	msg := "export failed"
	switch {
	case errors.Is(err, export.ErrBrokenLinks):
		msg = "broken internal links"
	case errors.Is(err, export.ErrOutputCollision):
		msg = "two routes map to the same output file"
	}
	return ferrors.WrapError(err, ferrors.CategoryExport, msg).
		WithContext("output", out).
		Fatal().
		Build()
}

func newNotifier(cfg *config.Config) (notify.Notifier, error) {
	if cfg.Notify.NATSURL == "" {
		return notify.Noop{}, nil
	}
	n, err := notify.NewNATS(cfg.Notify.NATSURL, cfg.Notify.Subject)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect notifier").
			WithContext("subject", cfg.Notify.Subject).
			Build()
	}
	return notify.WithRetry(n, retry.FromConfig(cfg.Notify.Retry)), nil
}

func closeNotifier(n notify.Notifier) {
	if err := n.Close(); err != nil {
		slog.Warn("Failed to close notifier", logfields.Error(err))
	}
}

func printSummary(w io.Writer, res *ExportResult) {
	rep := res.Report
	_, _ = fmt.Fprintf(w, "Exported %d routes to %s (%d written, %d skipped)\n",
		rep.Routes, rep.Output, len(rep.Written), len(rep.Skipped))
	for _, b := range rep.Broken {
		_, _ = fmt.Fprintf(w, "  broken link: %s\n", b)
	}
	if res.Delta != nil {
		_, _ = fmt.Fprintf(w, "Changes since last run: %s\n", res.Delta)
	}
}
