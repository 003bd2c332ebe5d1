package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/exportmap/internal/config"
	"git.home.luguber.info/inful/exportmap/internal/export"
	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/history"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

const siteConfig = `version: "1.0"
routes:
  - name: posts
    type: content
    source: posts
    prefix: /posts
    page: /post
history:
  enabled: true
monitoring:
  metrics_textfile: metrics.prom
`

// newSite lays out pages, content and a config file; it returns the config path.
func newSite(t *testing.T, cfg string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "index.js"), "export default () => null")
	writeFile(t, filepath.Join(dir, "pages", "post.mdx"), "# Post\n")
	writeFile(t, filepath.Join(dir, "posts", "hello.mdx"), "---\ntitle: Hello\n---\nHello *there*\n")
	path := filepath.Join(dir, "exportmap.yaml")
	writeFile(t, path, cfg)
	return path
}

// run parses args like the binary does and runs the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("exportmap"),
		kong.Vars{"version": "test"},
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "init", "-o", dir)
	require.NoError(t, err)
	require.Contains(t, out, "initialized successfully")
	require.FileExists(t, filepath.Join(dir, "exportmap.yaml"))

	_, err = run(t, "init", "-o", dir)
	require.Error(t, err)
	require.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestPages_ListsDiscoveredPages(t *testing.T) {
	cfg := newSite(t, siteConfig)
	out, err := run(t, "-c", cfg, "pages")
	require.NoError(t, err)
	require.Contains(t, out, "/post")
	require.Contains(t, out, "mdx")
	require.Contains(t, out, "index.js")
}

func TestResolve_JSON(t *testing.T) {
	cfg := newSite(t, siteConfig)
	out, err := run(t, "-c", cfg, "resolve", "--format", "json")
	require.NoError(t, err)

	var got []route
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, []route{
		{Path: "/", Page: "/", Params: pathmap.Params{}},
		{Path: "/post", Page: "/post", Params: pathmap.Params{}},
		{Path: "/posts/hello", Page: "/post", Params: pathmap.Params{"slug": "hello"}},
	}, normalizeParams(got))
}

// normalizeParams makes omitted params compare equal to empty ones.
func normalizeParams(rs []route) []route {
	for i := range rs {
		if rs[i].Params == nil {
			rs[i].Params = pathmap.Params{}
		}
	}
	return rs
}

func TestResolve_TextAndYAML(t *testing.T) {
	cfg := newSite(t, siteConfig)
	out, err := run(t, "-c", cfg, "resolve")
	require.NoError(t, err)
	require.Contains(t, out, "/posts/hello")
	require.Contains(t, out, "3 routes, fingerprint ")

	out, err = run(t, "-c", cfg, "resolve", "--format", "yaml")
	require.NoError(t, err)
	require.Contains(t, out, "path: /posts/hello")
	require.Contains(t, out, "slug: hello")
}

func TestResolve_DuplicatePathExitCode(t *testing.T) {
	cfg := newSite(t, `version: "1.0"
routes:
  - name: posts
    type: content
    source: posts
    prefix: /posts
    page: /post
  - name: clash
    type: static
    path: /posts/hello
    page: /post
    params:
      slug: other
`)
	_, err := run(t, "-c", cfg, "resolve")
	require.Error(t, err)
	require.ErrorIs(t, err, pathmap.ErrDuplicatePath)
	require.Equal(t, 13, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestExport_WritesSiteHistoryAndMetrics(t *testing.T) {
	cfg := newSite(t, siteConfig)
	base := filepath.Dir(cfg)

	out, err := run(t, "-c", cfg, "export")
	require.NoError(t, err)
	require.Contains(t, out, "Exported 3 routes")

	require.FileExists(t, filepath.Join(base, "out", "posts", "hello.html"))
	require.FileExists(t, filepath.Join(base, "out", "post.html"))
	require.NoFileExists(t, filepath.Join(base, "out", "index.html"))
	require.FileExists(t, filepath.Join(base, "out", "exportmap.json"))

	page, err := os.ReadFile(filepath.Join(base, "out", "posts", "hello.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), "<em>there</em>")

	metrics, err := os.ReadFile(filepath.Join(base, "metrics.prom"))
	require.NoError(t, err)
	require.Contains(t, string(metrics), `exportmap_build_outcomes_total{outcome="success"} 1`)

	// A second export records another run with an empty delta.
	writeFile(t, filepath.Join(base, "posts", "second.mdx"), "# Second\n")
	out, err = run(t, "-c", cfg, "export")
	require.NoError(t, err)
	require.Contains(t, out, "Changes since last run: +1 -0 ~0")

	out, err = run(t, "-c", cfg, "history", "--diff")
	require.NoError(t, err)
	require.Contains(t, out, "+ /posts/second")

	out, err = run(t, "-c", cfg, "history")
	require.NoError(t, err)
	require.Contains(t, out, "FINGERPRINT")
	require.Contains(t, out, "success")
}

func TestExport_OutputOverInputsRefused(t *testing.T) {
	cfg := newSite(t, siteConfig)
	base := filepath.Dir(cfg)

	_, err := run(t, "-c", cfg, "export", "-o", base)
	require.Error(t, err)
	require.ErrorIs(t, err, export.ErrOutputOverlap)
	require.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	require.FileExists(t, filepath.Join(base, "pages", "index.js"))
	require.FileExists(t, filepath.Join(base, "posts", "hello.mdx"))
}

func TestReloadConfig_KeepsLastGoodConfig(t *testing.T) {
	path := newSite(t, siteConfig)
	root := &CLI{Config: path}
	prev, err := config.Load(path)
	require.NoError(t, err)

	writeFile(t, path, "version: \"1.0\"\nroutes:\n  - type: rewrite\n")
	require.Same(t, prev, reloadConfig(root, prev))

	writeFile(t, path, `version: "1.0"
routes:
  - {name: posts, type: content, source: posts, prefix: /posts, page: /post}
  - {name: notes, type: content, source: notes, prefix: /notes, page: /post}
`)
	next := reloadConfig(root, prev)
	require.NotSame(t, prev, next)
	require.Len(t, next.Routes, 2)
}

func TestRunHistory_FewerThanTwoRuns(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var out bytes.Buffer
	require.NoError(t, RunHistory(context.Background(), &out, store, 5, true))
	require.Contains(t, out.String(), "fewer than two runs")
}

func TestExport_DefaultsFile(t *testing.T) {
	cfg := newSite(t, `version: "1.0"
routes:
  - type: content
    source: posts
    prefix: /posts
    page: /post
`)
	defaults := filepath.Join(filepath.Dir(cfg), "defaults.json")
	writeFile(t, defaults, `{"/": {"page": "/"}, "/about": {"page": "/post", "query": {}}}`)

	out, err := run(t, "-c", cfg, "resolve", "--defaults", defaults, "--format", "json")
	require.NoError(t, err)
	var got []route
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	paths := make([]string, 0, len(got))
	for _, r := range got {
		paths = append(paths, r.Path)
	}
	require.Equal(t, []string{"/", "/about", "/posts/hello"}, paths)
}
