package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/mdx"
)

// Load reads a configuration file. .env files next to it are loaded first,
// then ${VAR} references are expanded. The result is normalized, defaulted
// and validated.
func Load(configPath string) (*Config, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve config path").
			WithContext("path", configPath).Build()
	}
	dir := filepath.Dir(abs)
	loadEnvFiles(dir)

	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ferrors.NewError(ferrors.CategoryNotFound, "configuration file not found").
			WithContext("path", configPath).
			UserAction().
			Build()
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read config file").WithContext("path", configPath).Build()
	}
	return Parse(data, dir)
}

// Parse decodes configuration YAML. Relative paths resolve against baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "unmarshal config").UserAction().Build()
	}
	cfg.BaseDir = baseDir

	nres, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	for _, w := range nres.Warnings {
		slog.Warn("Config normalization", slog.String("warning", w))
	}

	ApplyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	slog.Debug("Configuration loaded", logfields.Path(baseDir), logfields.Count(len(cfg.Routes)))
	return &cfg, nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Version: CurrentVersion,
		Pages: PagesConfig{
			Dir:        "pages",
			Extensions: append([]string(nil), DefaultPageExtensions...),
		},
		MDX: MDXConfig{Extension: mdx.DefaultExtension},
		Routes: []RouteConfig{
			{Name: "posts", Type: RouteContent, Source: "posts", Prefix: "/posts", Page: "/post", Param: "slug"},
			{Name: "blog-pages", Type: RoutePaginate, Source: "posts", Prefix: "/blog", Page: "/blog", Param: "page", PerPage: 10},
			{Name: "drafts-hidden", Type: RouteExclude, Paths: []string{"/draft"}},
		},
		Export: ExportConfig{
			Output:    "out",
			Manifest:  "exportmap.json",
			SiteTitle: "My Site",
		},
		History: HistoryConfig{Enabled: true, Path: ".exportmap/history.db"},
		Notify:  NotifyConfig{NATSURL: "${EXPORTMAP_NATS_URL}", Subject: "exportmap.exported"},
		Monitoring: MonitoringConfig{
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
		Watch: WatchConfig{Debounce: defaultDebounce.String()},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write config file").WithContext("path", configPath).Build()
	}
	return nil
}
