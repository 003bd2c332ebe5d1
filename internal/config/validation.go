package config

import (
	"fmt"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/exportmap/internal/export"
	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/mdx"
	"git.home.luguber.info/inful/exportmap/internal/pages"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// ValidateConfig checks a defaulted configuration. The first problem found is
// returned as a classified config error carrying the offending field.
func ValidateConfig(cfg *Config) error {
	v := &validator{cfg: cfg}
	for _, check := range []func() error{
		v.validateVersion,
		v.validatePages,
		v.validateRoutes,
		v.validateExport,
		v.validateWatch,
		v.validateNotify,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	cfg *Config
}

func invalid(field, format string, args ...any) error {
	return ferrors.ConfigError(fmt.Sprintf("%s: %s", field, fmt.Sprintf(format, args...))).
		WithContext("field", field).
		Build()
}

func (v *validator) validateVersion() error {
	if v.cfg.Version != CurrentVersion {
		return invalid("version", "unsupported configuration version %q (expected %s)", v.cfg.Version, CurrentVersion)
	}
	return nil
}

// validatePages checks the page extension list against the MDX plugin: every
// extension must be a script extension or one the plugin handles.
func (v *validator) validatePages() error {
	plugin, err := mdx.New(v.cfg.MDX.Extension)
	if err != nil {
		return invalid("mdx.extension", "%v", err)
	}
	seen := map[string]bool{}
	for i, ext := range v.cfg.Pages.Extensions {
		field := fmt.Sprintf("pages.extensions[%d]", i)
		switch {
		case ext == "":
			return invalid(field, "empty extension")
		case seen[ext]:
			return invalid(field, "duplicate extension %q", ext)
		case !pages.IsScriptExtension(ext) && !plugin.Supports(ext):
			return invalid(field, "extension %q is neither a script extension %v nor matched by mdx.extension %s",
				ext, pages.ScriptExtensions, plugin.Pattern())
		}
		seen[ext] = true
	}
	return nil
}

func (v *validator) validateRoutes() error {
	names := map[string]int{}
	for i, r := range v.cfg.Routes {
		name := r.RouteName(i)
		field := fmt.Sprintf("routes[%d]", i)
		if prev, dup := names[name]; dup {
			return invalid(field+".name", "duplicate route name %q (also routes[%d])", name, prev)
		}
		names[name] = i
		if err := validateRoute(field, r); err != nil {
			return err
		}
	}
	return nil
}

func validateRoute(field string, r RouteConfig) error {
	switch r.Type {
	case RouteContent, RoutePaginate:
		if r.Source == "" {
			return invalid(field+".source", "required for %s routes", r.Type)
		}
		if err := validateRoutePath(field+".prefix", r.Prefix); err != nil {
			return err
		}
		if err := validateRoutePath(field+".page", r.Page); err != nil {
			return err
		}
		if r.Type == RoutePaginate && r.PerPage <= 0 {
			return invalid(field+".per_page", "must be positive, got %d", r.PerPage)
		}
		if r.Type == RoutePaginate && r.Override {
			return invalid(field+".override", "not supported for paginate routes")
		}
	case RouteStatic:
		if err := validateRoutePath(field+".path", r.Path); err != nil {
			return err
		}
		if err := validateRoutePath(field+".page", r.Page); err != nil {
			return err
		}
	case RouteExclude:
		if len(r.Paths) == 0 {
			return invalid(field+".paths", "at least one path is required")
		}
		for j, p := range r.Paths {
			if err := validateRoutePath(fmt.Sprintf("%s.paths[%d]", field, j), p); err != nil {
				return err
			}
		}
	default:
		return invalid(field+".type", "unknown route type %q (valid: %v)", r.Type, RouteTypes())
	}
	return nil
}

func validateRoutePath(field, p string) error {
	if p == "" {
		return invalid(field, "required")
	}
	if reason := pathmap.ValidatePath(p); reason != "" {
		return invalid(field, "%q: %s", p, reason)
	}
	return nil
}

func (v *validator) validateExport() error {
	out := filepath.Clean(v.cfg.Export.Output)
	if out == "." || out == string(filepath.Separator) {
		return invalid("export.output", "refusing to export into %q", v.cfg.Export.Output)
	}
	if err := export.CheckOutput(v.cfg.OutputDir(), v.cfg.Inputs(), v.cfg.Roots()); err != nil {
		return invalid("export.output", "%v", err)
	}
	if filepath.Base(v.cfg.Export.Manifest) != v.cfg.Export.Manifest {
		return invalid("export.manifest", "must be a file name, got %q", v.cfg.Export.Manifest)
	}
	if v.cfg.History.Enabled && v.cfg.History.Path == "" {
		return invalid("history.path", "required when history is enabled")
	}
	return nil
}

func (v *validator) validateWatch() error {
	if d, err := time.ParseDuration(v.cfg.Watch.Debounce); err != nil || d < 0 {
		return invalid("watch.debounce", "invalid duration %q", v.cfg.Watch.Debounce)
	}
	if v.cfg.Watch.RescanInterval != "" {
		d, err := time.ParseDuration(v.cfg.Watch.RescanInterval)
		if err != nil || d < time.Second {
			return invalid("watch.rescan_interval", "invalid duration %q (minimum 1s)", v.cfg.Watch.RescanInterval)
		}
	}
	return nil
}

func (v *validator) validateNotify() error {
	r := v.cfg.Notify.Retry
	if NormalizeRetryBackoffMode(string(r.Backoff)) == "" {
		return invalid("notify.retry.backoff", "unknown backoff %q (valid: %v)", r.Backoff, retryBackoffNormalizer.ValidKeys())
	}
	for _, f := range []struct{ field, raw string }{
		{"notify.retry.initial", r.Initial},
		{"notify.retry.max", r.Max},
	} {
		if f.raw == "" {
			continue
		}
		if d, err := time.ParseDuration(f.raw); err != nil || d <= 0 {
			return invalid(f.field, "invalid duration %q", f.raw)
		}
	}
	if r.MaxRetries < 0 {
		return invalid("notify.retry.max_retries", "cannot be negative")
	}
	return nil
}
