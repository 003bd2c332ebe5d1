package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "exportmap.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_AppliesDefaults(t *testing.T) {
	p := writeConfig(t, "version: \"1.0\"\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "pages", cfg.Pages.Dir)
	require.Equal(t, []string{"js", "jsx", "mdx"}, cfg.Pages.Extensions)
	require.Equal(t, `\.mdx?$`, cfg.MDX.Extension)
	require.Equal(t, "out", cfg.Export.Output)
	require.Equal(t, "exportmap.json", cfg.Export.Manifest)
	require.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
	require.Equal(t, 500*time.Millisecond, cfg.Watch.DebounceDuration())
	require.Zero(t, cfg.Watch.RescanDuration())
	require.Equal(t, filepath.Join(filepath.Dir(p), "pages"), cfg.PagesDir())
	require.Equal(t, filepath.Join(filepath.Dir(p), "out"), cfg.OutputDir())
}

func TestLoad_RoutesAndNormalization(t *testing.T) {
	t.Setenv("EXPORTMAP_TEST_OUT", "public")
	p := writeConfig(t, `version: "1.0"
pages:
  extensions: [".JS", jsx, MDX]
export:
  output: ${EXPORTMAP_TEST_OUT}
monitoring:
  logging:
    level: DEBUG
    format: JSON
routes:
  - type: Content
    source: posts
    prefix: /posts
    page: /post
  - name: listing
    type: paginate
    source: posts
    prefix: /blog
    page: /blog
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, []string{"js", "jsx", "mdx"}, cfg.Pages.Extensions)
	require.Equal(t, "public", cfg.Export.Output)
	require.Equal(t, LogLevelDebug, cfg.Monitoring.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Monitoring.Logging.Format)

	require.Len(t, cfg.Routes, 2)
	require.Equal(t, RouteContent, cfg.Routes[0].Type)
	require.Equal(t, "slug", cfg.Routes[0].Param)
	require.Equal(t, "content-1", cfg.Routes[0].RouteName(0))
	require.Equal(t, "page", cfg.Routes[1].Param)
	require.Equal(t, 10, cfg.Routes[1].PerPage)
	require.Equal(t, "listing", cfg.Routes[1].RouteName(1))
}

func TestLoad_EnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXPORTMAP_TEST_TITLE", "from-process")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("EXPORTMAP_TEST_TITLE=from-file\nEXPORTMAP_TEST_MANIFEST=routes.json\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("EXPORTMAP_TEST_MANIFEST") })
	p := filepath.Join(dir, "exportmap.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`version: "1.0"
export:
  site_title: ${EXPORTMAP_TEST_TITLE}
  manifest: ${EXPORTMAP_TEST_MANIFEST}
`), 0o600))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "from-process", cfg.Export.SiteTitle)
	require.Equal(t, "routes.json", cfg.Export.Manifest)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	_, err = Load(writeConfig(t, "version: \"2.0\"\n"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Contains(t, err.Error(), "version")

	_, err = Load(writeConfig(t, "version: \"1.0\"\nunknown_key: 1\n"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"md extension not handled by plugin", "pages:\n  extensions: [js, md]\nmdx:\n  extension: '\\.mdx$'\n", "pages.extensions[1]"},
		{"unknown extension", "pages:\n  extensions: [js, vue]\n", "pages.extensions[1]"},
		{"duplicate extension", "pages:\n  extensions: [js, js]\n", "pages.extensions[1]"},
		{"bad mdx pattern", "mdx:\n  extension: '('\n", "mdx.extension"},
		{"unknown route type", "routes:\n  - type: rewrite\n", "routes[0].type"},
		{"content without source", "routes:\n  - type: content\n    prefix: /posts\n    page: /post\n", "routes[0].source"},
		{"trailing slash prefix", "routes:\n  - type: content\n    source: p\n    prefix: /posts/\n    page: /post\n", "routes[0].prefix"},
		{"negative per page", "routes:\n  - type: paginate\n    source: p\n    prefix: /b\n    page: /b\n    per_page: -1\n", "routes[0].per_page"},
		{"exclude without paths", "routes:\n  - type: exclude\n", "routes[0].paths"},
		{"duplicate names", "routes:\n  - {name: a, type: exclude, paths: [/x]}\n  - {name: a, type: exclude, paths: [/y]}\n", "routes[1].name"},
		{"export into cwd", "export:\n  output: .\n", "export.output"},
		{"output contains pages dir", "pages:\n  dir: site/pages\nexport:\n  output: site\n", "export.output"},
		{"output inside pages dir", "pages:\n  dir: src\nexport:\n  output: src/out\n", "export.output"},
		{"output contains route source", "export:\n  output: build\nroutes:\n  - {type: content, source: build/posts, prefix: /posts, page: /post}\n", "export.output"},
		{"output replaces config dir", "export:\n  output: ..\n", "export.output"},
		{"output contains history db", "export:\n  output: data\nhistory:\n  enabled: true\n  path: data/history.db\n", "export.output"},
		{"manifest with dir", "export:\n  manifest: a/b.json\n", "export.manifest"},
		{"bad debounce", "watch:\n  debounce: soon\n", "watch.debounce"},
		{"rescan too short", "watch:\n  rescan_interval: 10ms\n", "watch.rescan_interval"},
		{"unknown retry backoff", "notify:\n  retry:\n    backoff: sometimes\n", "notify.retry.backoff"},
		{"bad retry initial", "notify:\n  retry:\n    initial: now\n", "notify.retry.initial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte("version: \"1.0\"\n"+tt.body), t.TempDir())
			require.Error(t, err)
			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			require.Equal(t, ferrors.CategoryConfig, ce.Category())
			field, _ := ce.Context().GetString("field")
			require.Equal(t, tt.field, field)
		})
	}
}

func TestValidate_StaticRoute(t *testing.T) {
	cfg, err := Parse([]byte(`version: "1.0"
routes:
  - type: static
    path: /feed
    page: /feed
    params: {format: rss}
    override: true
`), "")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"format": "rss"}, cfg.Routes[0].Params)
	require.True(t, cfg.Routes[0].Override)
	require.Equal(t, "pages", cfg.PagesDir())
}

func TestInit_WritesLoadableExample(t *testing.T) {
	p := filepath.Join(t.TempDir(), "exportmap.yaml")
	require.NoError(t, Init(p, false))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Len(t, cfg.Routes, 3)
	require.Empty(t, cfg.Notify.NATSURL)

	err = Init(p, false)
	require.Error(t, err)
	require.NoError(t, Init(p, true))
}

func TestLogLevel_SlogLevel(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	require.Equal(t, "WARN", NormalizeLogLevel("warning").SlogLevel().String())
	require.Equal(t, "INFO", LogLevel("").SlogLevel().String())
}
