// Package config loads and validates exportmap configuration files.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// CurrentVersion is the only supported configuration version.
const CurrentVersion = "1.0"

// Config is the exportmap configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Pages      PagesConfig      `yaml:"pages"`
	MDX        MDXConfig        `yaml:"mdx"`
	Routes     []RouteConfig    `yaml:"routes,omitempty"`
	Export     ExportConfig     `yaml:"export"`
	History    HistoryConfig    `yaml:"history"`
	Notify     NotifyConfig     `yaml:"notify,omitempty"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Watch      WatchConfig      `yaml:"watch,omitempty"`

	// BaseDir anchors relative paths. Load sets it to the config file's directory.
	BaseDir string `yaml:"-"`
}

// PagesConfig locates page sources.
type PagesConfig struct {
	Dir string `yaml:"dir"`
	// Extensions is the ordered page extension list, without dots.
	Extensions []string `yaml:"extensions"`
	// Ignore holds glob patterns, matched against slash paths relative to Dir.
	Ignore []string `yaml:"ignore,omitempty"`
}

// MDXConfig configures the MDX plugin.
type MDXConfig struct {
	// Extension is a regular expression matched against file names.
	Extension string `yaml:"extension"`
}

// RouteConfig is one export path rule. Which fields apply depends on Type.
type RouteConfig struct {
	Name          string            `yaml:"name,omitempty"`
	Type          RouteType         `yaml:"type"`
	Source        string            `yaml:"source,omitempty"`
	Prefix        string            `yaml:"prefix,omitempty"`
	Page          string            `yaml:"page,omitempty"`
	Param         string            `yaml:"param,omitempty"`
	PerPage       int               `yaml:"per_page,omitempty"`
	Path          string            `yaml:"path,omitempty"`
	Params        map[string]string `yaml:"params,omitempty"`
	Paths         []string          `yaml:"paths,omitempty"`
	IncludeDrafts bool              `yaml:"include_drafts,omitempty"`
	Override      bool              `yaml:"override,omitempty"`
}

// ExportConfig controls static output.
type ExportConfig struct {
	Output            string `yaml:"output"`
	TrailingSlash     bool   `yaml:"trailing_slash"`
	Manifest          string `yaml:"manifest"`
	FailOnBrokenLinks bool   `yaml:"fail_on_broken_links"`
	SiteTitle         string `yaml:"site_title"`
	// Layout is an optional html/template file wrapping rendered pages.
	Layout string `yaml:"layout,omitempty"`
}

// HistoryConfig controls the resolution history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig controls export notifications. An empty NATSURL disables them.
type NotifyConfig struct {
	NATSURL string      `yaml:"nats_url,omitempty"`
	Subject string      `yaml:"subject,omitempty"`
	Retry   RetryConfig `yaml:"retry,omitempty"`
}

// MonitoringConfig holds metrics and logging settings.
type MonitoringConfig struct {
	MetricsTextfile string            `yaml:"metrics_textfile,omitempty"`
	Logging         MonitoringLogging `yaml:"logging"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
	// RescanInterval enables a periodic full rebuild, for filesystems without
	// change notifications. Empty disables it.
	RescanInterval string `yaml:"rescan_interval,omitempty"`
}

// DebounceDuration parses Debounce. Validation guarantees it parses after Load.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return defaultDebounce
	}
	return d
}

// RescanDuration parses RescanInterval; zero means disabled.
func (w WatchConfig) RescanDuration() time.Duration {
	if w.RescanInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.RescanInterval)
	if err != nil {
		return 0
	}
	return d
}

// Resolve anchors a relative path at BaseDir.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// PagesDir returns the resolved pages directory.
func (c *Config) PagesDir() string { return c.Resolve(c.Pages.Dir) }

// OutputDir returns the resolved export directory.
func (c *Config) OutputDir() string { return c.Resolve(c.Export.Output) }

// Inputs lists the resolved paths an export must leave alone: the pages
// dir, every route source, the layout and the history database.
func (c *Config) Inputs() []string {
	in := []string{c.PagesDir()}
	for _, r := range c.Routes {
		if r.Source != "" {
			in = append(in, c.Resolve(r.Source))
		}
	}
	if c.Export.Layout != "" {
		in = append(in, c.Resolve(c.Export.Layout))
	}
	if c.History.Enabled && c.History.Path != "" {
		in = append(in, c.Resolve(c.History.Path))
	}
	return in
}

// Roots lists directories that may hold the export dir but must survive it.
func (c *Config) Roots() []string {
	if c.BaseDir == "" {
		return []string{"."}
	}
	return []string{c.BaseDir}
}

// RouteName returns the configured name, or "<type>-<n>" (1-based) if unset.
func (r RouteConfig) RouteName(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%s-%d", r.Type, index+1)
}
