package config

import (
	"time"

	"git.home.luguber.info/inful/exportmap/internal/mdx"
)

const (
	defaultDebounce = 500 * time.Millisecond
	defaultPerPage  = 10
)

// DefaultPageExtensions is the page extension list used when none is configured.
var DefaultPageExtensions = []string{"js", "jsx", "mdx"}

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type pagesDefaults struct{}

func (pagesDefaults) Domain() string { return "pages" }

func (pagesDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Pages.Dir == "" {
		cfg.Pages.Dir = "pages"
	}
	if len(cfg.Pages.Extensions) == 0 {
		cfg.Pages.Extensions = append([]string(nil), DefaultPageExtensions...)
	}
	if cfg.MDX.Extension == "" {
		cfg.MDX.Extension = mdx.DefaultExtension
	}
}

type routeDefaults struct{}

func (routeDefaults) Domain() string { return "routes" }

func (routeDefaults) ApplyDefaults(cfg *Config) {
	for i := range cfg.Routes {
		r := &cfg.Routes[i]
		switch r.Type {
		case RouteContent:
			if r.Param == "" {
				r.Param = "slug"
			}
		case RoutePaginate:
			if r.Param == "" {
				r.Param = "page"
			}
			if r.PerPage == 0 {
				r.PerPage = defaultPerPage
			}
		}
	}
}

type exportDefaults struct{}

func (exportDefaults) Domain() string { return "export" }

func (exportDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Export.Output == "" {
		cfg.Export.Output = "out"
	}
	if cfg.Export.Manifest == "" {
		cfg.Export.Manifest = "exportmap.json"
	}
	if cfg.Export.SiteTitle == "" {
		cfg.Export.SiteTitle = "exportmap"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".exportmap/history.db"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "exportmap.exported"
	}
	if cfg.Notify.Retry.Backoff == "" {
		cfg.Notify.Retry.Backoff = RetryBackoffExponential
	}
}

type runtimeDefaults struct{}

func (runtimeDefaults) Domain() string { return "runtime" }

func (runtimeDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce.String()
	}
}

var defaultAppliers = []DefaultApplier{pagesDefaults{}, routeDefaults{}, exportDefaults{}, runtimeDefaults{}}

// ApplyDefaults fills unset fields in every domain.
func ApplyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}
