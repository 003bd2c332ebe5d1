// Package export writes every route of a resolved path table to its output
// file in a static export directory.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/exportmap/internal/linkcheck"
	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/metrics"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
	"git.home.luguber.info/inful/exportmap/internal/render"
)

// ErrBrokenLinks indicates internal links to paths outside the table, when
// they are configured to fail the export.
var ErrBrokenLinks = errors.New("broken internal links")

// Options configure an Exporter.
type Options struct {
	TrailingSlash bool
	// Manifest is the manifest file name inside the export dir; empty disables it.
	Manifest          string
	FailOnBrokenLinks bool
	Recorder          metrics.Recorder
	// Inputs are source paths the export must neither replace nor write into.
	Inputs []string
	// Roots may contain the export dir but must not be replaced by it.
	Roots []string
}

// Report summarizes an export.
type Report struct {
	Output      string             `json:"output"`
	Routes      int                `json:"routes"`
	Fingerprint string             `json:"fingerprint"`
	Written     []string           `json:"written"`
	Skipped     []string           `json:"skipped"`
	Broken      []linkcheck.Broken `json:"broken,omitempty"`
	Duration    time.Duration      `json:"duration"`
}

// renderability is implemented by renderers that can tell ahead of time
// which pages they cannot render.
type renderability interface {
	Renderable(page string) bool
}

// Exporter writes resolved tables to a directory.
type Exporter struct {
	out      string
	renderer render.Renderer
	opts     Options
	stageDir string
}

// New creates an exporter writing into outDir.
func New(outDir string, r render.Renderer, opts Options) *Exporter {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Exporter{out: filepath.Clean(outDir), renderer: r, opts: opts}
}

// Export renders every entry of table into a staging directory and promotes
// it over the output directory once everything succeeded. Entries whose
// page cannot be rendered here are listed in the manifest but not written.
func (e *Exporter) Export(ctx context.Context, table pathmap.Table) (*Report, error) {
	start := time.Now()
	rep := &Report{Output: e.out, Routes: len(table), Fingerprint: table.Fingerprint(), Written: []string{}, Skipped: []string{}}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	if err := CheckOutput(e.out, e.opts.Inputs, e.opts.Roots); err != nil {
		return nil, err
	}
	files, err := planFiles(table, e.opts.TrailingSlash)
	if err != nil {
		return nil, err
	}
	if err := e.beginStaging(); err != nil {
		return nil, fmt.Errorf("begin staging: %w", err)
	}

	err = metrics.Stage(e.opts.Recorder, metrics.StageRender, func() error {
		return e.renderAll(ctx, table, files, rep)
	})
	if err == nil && e.opts.Manifest != "" {
		rendered := make(map[string]bool, len(rep.Written))
		for _, p := range rep.Written {
			rendered[p] = true
		}
		err = writeManifest(filepath.Join(e.stageDir, e.opts.Manifest), buildManifest(table, files, rendered))
	}
	if err == nil && len(rep.Broken) > 0 && e.opts.FailOnBrokenLinks {
		err = fmt.Errorf("%w: %d found, first %s", ErrBrokenLinks, len(rep.Broken), rep.Broken[0])
	}
	if err == nil {
		err = e.finalizeStaging()
	}
	if err != nil {
		e.abortStaging()
		return nil, err
	}

	rep.Duration = time.Since(start)
	e.opts.Recorder.AddPages("written", len(rep.Written))
	e.opts.Recorder.AddPages("skipped", len(rep.Skipped))
	e.opts.Recorder.AddBrokenLinks(len(rep.Broken))
	slog.Info("Export complete",
		logfields.Path(e.out),
		logfields.Count(len(table)),
		slog.Int("written", len(rep.Written)),
		slog.Int("skipped", len(rep.Skipped)),
		slog.Int("broken_links", len(rep.Broken)),
		logfields.Duration(rep.Duration))
	return rep, nil
}

func (e *Exporter) renderAll(ctx context.Context, table pathmap.Table, files map[string]string, rep *Report) error {
	var buf bytes.Buffer
	for _, p := range table.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := table[p]
		if ra, ok := e.renderer.(renderability); ok && !ra.Renderable(target.Page) {
			rep.Skipped = append(rep.Skipped, p)
			slog.Debug("Page not renderable, listed in manifest only", logfields.Path(p), logfields.Page(target.Page))
			continue
		}

		buf.Reset()
		if err := e.renderer.Render(&buf, p, target); err != nil {
			if errors.Is(err, render.ErrNotRenderable) {
				rep.Skipped = append(rep.Skipped, p)
				continue
			}
			return fmt.Errorf("render %s (%s): %w", p, target, err)
		}

		links, err := linkcheck.Extract(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return fmt.Errorf("check links on %s: %w", p, err)
		}
		for _, b := range linkcheck.Check(servedAt(p, e.opts.TrailingSlash), links, table) {
			b.From = p
			rep.Broken = append(rep.Broken, b)
			slog.Warn("Broken internal link", logfields.Path(p), slog.String("href", b.URL), slog.String("target", b.Target))
		}

		dst := filepath.Join(e.stageDir, filepath.FromSlash(files[p]))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", p, err)
		}
		if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", files[p], err)
		}
		rep.Written = append(rep.Written, p)
	}
	return nil
}
