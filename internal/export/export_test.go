package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
	"git.home.luguber.info/inful/exportmap/internal/render"
)

// stubRenderer renders a tiny document per target. Pages in scripts are not
// renderable; links adds anchors to every rendered page.
type stubRenderer struct {
	scripts map[string]bool
	links   []string
	fail    string
}

func (s stubRenderer) Render(w io.Writer, p string, t pathmap.RenderTarget) error {
	if s.scripts[t.Page] {
		return fmt.Errorf("%w: %s", render.ErrNotRenderable, t.Page)
	}
	if p == s.fail {
		return errors.New("boom")
	}
	_, err := fmt.Fprintf(w, "<html><body><h1>%s %s</h1>", p, t)
	for _, l := range s.links {
		_, _ = fmt.Fprintf(w, `<a href="%s">x</a>`, l)
	}
	_, _ = io.WriteString(w, "</body></html>")
	return err
}

func sampleTable() pathmap.Table {
	return pathmap.Table{
		"/":               pathmap.Target("/", nil),
		"/about":          pathmap.Target("/about", nil),
		"/post":           pathmap.Target("/post", nil),
		"/posts/my-post":  pathmap.Target("/post", pathmap.Params{"slug": "my-post"}),
		"/posts/my-other": pathmap.Target("/post", pathmap.Params{"slug": "my-other"}),
	}
}

func TestOutputFile(t *testing.T) {
	require.Equal(t, "index.html", OutputFile("/", false))
	require.Equal(t, "index.html", OutputFile("/", true))
	require.Equal(t, "about.html", OutputFile("/about", false))
	require.Equal(t, "posts/my-post.html", OutputFile("/posts/my-post", false))
	require.Equal(t, "posts/my-post/index.html", OutputFile("/posts/my-post", true))
}

func TestPlanFiles_Collision(t *testing.T) {
	table := pathmap.Table{
		"/":      pathmap.Target("/", nil),
		"/index": pathmap.Target("/", nil),
	}
	_, err := planFiles(table, false)
	require.True(t, errors.Is(err, ErrOutputCollision))

	table = pathmap.Table{
		"/a":       pathmap.Target("/a", nil),
		"/a/index": pathmap.Target("/a", nil),
	}
	_, err = planFiles(table, false)
	require.NoError(t, err)
	_, err = planFiles(table, true)
	require.True(t, errors.Is(err, ErrOutputCollision))
}

func TestExport_WritesFilesAndManifest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	ex := New(out, stubRenderer{scripts: map[string]bool{"/": true}}, Options{Manifest: "exportmap.json"})

	rep, err := ex.Export(context.Background(), sampleTable())
	require.NoError(t, err)
	require.Equal(t, []string{"/about", "/post", "/posts/my-other", "/posts/my-post"}, rep.Written)
	require.Equal(t, []string{"/"}, rep.Skipped)
	require.Equal(t, 5, rep.Routes)

	data, err := os.ReadFile(filepath.Join(out, "posts", "my-post.html"))
	require.NoError(t, err)
	require.Contains(t, string(data), "page /post {slug=my-post}")
	require.NoFileExists(t, filepath.Join(out, "index.html"))
	require.NoDirExists(t, out+"_stage")

	m, err := ReadManifest(filepath.Join(out, "exportmap.json"))
	require.NoError(t, err)
	require.Equal(t, ManifestVersion, m.Version)
	require.Equal(t, sampleTable().Fingerprint(), m.Fingerprint)
	require.Len(t, m.Pages, 3)
	require.Equal(t, "/", m.Pages[0].Page)
	require.False(t, m.Pages[0].Entries[0].Rendered)
	post := m.Pages[2]
	require.Equal(t, "/post", post.Page)
	require.Len(t, post.Entries, 3)
	require.Equal(t, ManifestEntry{Path: "/post", Params: pathmap.Params{}, File: "post.html", Rendered: true}, post.Entries[0])
	require.Equal(t, pathmap.Params{"slug": "my-other"}, post.Entries[1].Params)
}

func TestExport_ReplacesPreviousOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.html"), []byte("old"), 0o600))

	_, err := New(out, stubRenderer{}, Options{TrailingSlash: true}).Export(context.Background(), sampleTable())
	require.NoError(t, err)
	require.NoFileExists(t, filepath.Join(out, "stale.html"))
	require.FileExists(t, filepath.Join(out, "posts", "my-post", "index.html"))
	require.NoDirExists(t, out+".prev")
	require.NoFileExists(t, filepath.Join(out, "exportmap.json"))
}

func TestExport_FailureKeepsPreviousOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "keep.html"), []byte("old"), 0o600))

	_, err := New(out, stubRenderer{fail: "/about"}, Options{}).Export(context.Background(), sampleTable())
	require.Error(t, err)
	require.Contains(t, err.Error(), "/about")
	require.FileExists(t, filepath.Join(out, "keep.html"))
	require.NoDirExists(t, out+"_stage")
}

func TestExport_BrokenLinks(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	r := stubRenderer{links: []string{"/about", "/posts/gone", "/static/app.css"}}

	rep, err := New(out, r, Options{}).Export(context.Background(), sampleTable())
	require.NoError(t, err)
	require.Len(t, rep.Broken, 5, "one broken link per rendered page")
	require.Equal(t, "/", rep.Broken[0].From)
	require.Equal(t, "/posts/gone", rep.Broken[0].Target)

	_, err = New(out, r, Options{FailOnBrokenLinks: true}).Export(context.Background(), sampleTable())
	require.True(t, errors.Is(err, ErrBrokenLinks))
	require.FileExists(t, filepath.Join(out, "about.html"), "previous export survives")
}

func TestExport_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(filepath.Join(t.TempDir(), "out"), stubRenderer{}, Options{}).Export(ctx, sampleTable())
	require.ErrorIs(t, err, context.Canceled)
}

func TestExport_InvalidTable(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "out"), stubRenderer{}, Options{}).
		Export(context.Background(), pathmap.Table{"relative": pathmap.Target("/x", nil)})
	require.True(t, errors.Is(err, pathmap.ErrInvalidPath))
}

func TestCheckOutput(t *testing.T) {
	root := t.TempDir()
	site := filepath.Join(root, "site")
	tests := []struct {
		name    string
		out     string
		inputs  []string
		wantErr bool
	}{
		{"sibling dirs", filepath.Join(root, "out"), []string{filepath.Join(root, "pages")}, false},
		{"shared name prefix", filepath.Join(root, "pages-out"), []string{filepath.Join(root, "pages")}, false},
		{"same dir", site, []string{site}, true},
		{"input inside output", site, []string{filepath.Join(site, "pages")}, true},
		{"output inside input", filepath.Join(site, "out"), []string{site}, true},
		{"input is staging dir", site, []string{site + "_stage"}, true},
		{"input inside backup dir", site, []string{filepath.Join(site+".prev", "db")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOutput(tt.out, tt.inputs, []string{root})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOutputOverlap)
				return
			}
			require.NoError(t, err)
		})
	}

	require.ErrorIs(t, CheckOutput(root, nil, []string{root}), ErrOutputOverlap)
	require.ErrorIs(t, CheckOutput(filepath.Dir(root), nil, []string{root}), ErrOutputOverlap)
}

func TestExport_RefusesOutputContainingPages(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	pagesDir := filepath.Join(out, "pages")
	require.NoError(t, os.MkdirAll(pagesDir, 0o755))
	src := filepath.Join(pagesDir, "index.mdx")
	require.NoError(t, os.WriteFile(src, []byte("# Home\n"), 0o600))

	_, err := New(out, stubRenderer{}, Options{Inputs: []string{pagesDir}}).Export(context.Background(), sampleTable())
	require.ErrorIs(t, err, ErrOutputOverlap)
	require.FileExists(t, src)
	require.NoDirExists(t, out+"_stage")
}
