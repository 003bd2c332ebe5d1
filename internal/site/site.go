// Package site assembles pages, content and route rules from configuration
// and resolves the export path table.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"git.home.luguber.info/inful/exportmap/internal/config"
	"git.home.luguber.info/inful/exportmap/internal/content"
	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/mdx"
	"git.home.luguber.info/inful/exportmap/internal/metrics"
	"git.home.luguber.info/inful/exportmap/internal/pages"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
	"git.home.luguber.info/inful/exportmap/internal/render"
)

// Options adjust Load.
type Options struct {
	// Defaults replaces the scanned default table when non-nil. Its pages
	// are added to the known page set.
	Defaults pathmap.Table
	Recorder metrics.Recorder
}

// Site is a loaded and resolved site.
type Site struct {
	Config   *config.Config
	Plugin   *mdx.Plugin
	Pages    *pages.Set
	Sources  map[string]*content.Index // by route name
	Defaults pathmap.Table
	Table    pathmap.Table
	Report   pathmap.Report
	Bindings render.Bindings

	contentDirs []string
}

// ContentDirs lists the content directories the routes read, sorted.
func (s *Site) ContentDirs() []string { return slices.Clone(s.contentDirs) }

// Renderer builds the markdown renderer for this site.
func (s *Site) Renderer() (*render.Markdown, error) {
	r, err := render.NewMarkdown(s.Pages, s.Bindings, render.Options{
		SiteTitle: s.Config.Export.SiteTitle,
		Layout:    s.Config.Resolve(s.Config.Export.Layout),
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to load layout").
			WithContext("layout", s.Config.Export.Layout).
			Build()
	}
	return r, nil
}

// Load scans pages and content and resolves the route table.
func Load(ctx context.Context, cfg *config.Config, opts Options) (*Site, error) {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	plugin, err := mdx.New(cfg.MDX.Extension)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid mdx extension pattern").
			WithContext("field", "mdx.extension").
			Build()
	}

	s := &Site{Config: cfg, Plugin: plugin, Sources: map[string]*content.Index{}}

	err = metrics.Stage(rec, metrics.StageScan, func() error {
		set, err := pages.NewScanner(cfg.PagesDir(), cfg.Pages.Extensions, plugin).
			WithIgnore(cfg.Pages.Ignore...).
			Scan()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryPages, "failed to scan pages").
				WithContext("dir", cfg.PagesDir()).
				Build()
		}
		s.Pages = set
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = metrics.Stage(rec, metrics.StageContent, func() error {
		return s.loadSources()
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.Defaults = s.Pages.DefaultTable()
	known := pathmap.PageSet(s.Pages)
	if opts.Defaults != nil {
		s.Defaults = opts.Defaults.Clone()
		known = withPages(s.Pages, opts.Defaults.Pages())
		slog.Info("Using external default table", logfields.Count(len(s.Defaults)))
	}

	rules, err := RulesFromConfig(cfg, s.Sources)
	if err != nil {
		return nil, err
	}

	err = metrics.Stage(rec, metrics.StageResolve, func() error {
		start := time.Now()
		table, report, err := pathmap.ResolveWithReport(s.Defaults, known, rules...)
		if err != nil {
			return classifyResolveError(err)
		}
		s.Table, s.Report = table, report
		slog.Info("Resolved path table",
			logfields.Count(len(table)),
			logfields.Fingerprint(table.Fingerprint()),
			logfields.Duration(time.Since(start)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec.SetRoutes(pathmap.OriginDefault, s.Report.Defaults)
	for rule, n := range s.Report.Generated {
		rec.SetRoutes(rule, n)
	}
	s.Bindings = bindingsFromConfig(cfg, s.Sources)
	return s, nil
}

type sourceKey struct {
	dir    string
	drafts bool
}

// loadSources reads each content directory once, shared by every route that
// names it with the same draft setting.
func (s *Site) loadSources() error {
	loaded := map[sourceKey]*content.Index{}
	dirs := map[string]struct{}{}
	for i, rc := range s.Config.Routes {
		if rc.Source == "" || (rc.Type != config.RouteContent && rc.Type != config.RoutePaginate) {
			continue
		}
		key := sourceKey{dir: s.Config.Resolve(rc.Source), drafts: rc.IncludeDrafts}
		idx, ok := loaded[key]
		if !ok {
			var err error
			idx, err = content.NewDirSource(key.dir, s.Plugin, key.drafts).Load()
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryContent, "failed to load content").
					WithContext("source", rc.Source).
					WithContext("rule", rc.RouteName(i)).
					Build()
			}
			loaded[key] = idx
			slog.Debug("Loaded content source", logfields.Source(rc.Source), logfields.Count(idx.Len()))
		}
		s.Sources[rc.RouteName(i)] = idx
		dirs[key.dir] = struct{}{}
	}
	s.contentDirs = slices.Sorted(maps.Keys(dirs))
	return nil
}

func classifyResolveError(err error) error {
	var pe *pathmap.PathError
	if !errors.As(err, &pe) {
		return ferrors.WrapError(err, ferrors.CategoryPathMap, "failed to resolve path table").Build()
	}
	b := ferrors.WrapError(err, ferrors.CategoryPathMap, resolveMessage(pe)).
		WithContext("path", pe.Path).
		WithContext("page", pe.Target.Page)
	if pe.Rule != "" {
		b = b.WithContext("rule", pe.Rule)
	}
	if pe.Existing != nil {
		b = b.WithContext("existing", pe.Existing.String())
	}
	return b.Fatal().UserAction().Build()
}

func resolveMessage(pe *pathmap.PathError) string {
	switch {
	case errors.Is(pe, pathmap.ErrUnresolvableReference):
		return "route references an unknown page"
	case errors.Is(pe, pathmap.ErrDuplicatePath):
		return "two routes produce the same output path"
	case errors.Is(pe, pathmap.ErrInvalidPath):
		return "invalid output path"
	default:
		return "failed to resolve path table"
	}
}

// knownPages is the scanned page set plus pages named by an external
// default table.
type knownPages struct {
	set   *pages.Set
	extra pathmap.PageList
}

func withPages(set *pages.Set, extra []string) pathmap.PageSet {
	return knownPages{set: set, extra: pathmap.Pages(extra...)}
}

func (k knownPages) Has(page string) bool {
	return k.set.Has(page) || k.extra.Has(page)
}

// Describe summarizes the report for logs.
func (s *Site) Describe() string {
	return fmt.Sprintf("%d routes (%d default, %d replaced, %d removed)",
		s.Report.Total, s.Report.Defaults, s.Report.Replaced, s.Report.Removed)
}
