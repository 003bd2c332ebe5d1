// Package render turns resolved render targets into HTML documents.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/exportmap/internal/mdx"
	"git.home.luguber.info/inful/exportmap/internal/pages"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

var (
	// ErrNotRenderable indicates a page that only the host's script runtime can render.
	ErrNotRenderable = errors.New("page is not renderable")

	// ErrPageNotFound indicates a render target naming an unknown page.
	ErrPageNotFound = errors.New("page not found")

	// ErrEntryNotFound indicates a content binding whose slug has no entry.
	ErrEntryNotFound = errors.New("content entry not found")
)

// Renderer is the render-time lookup: it produces the document for one
// output path from its render target.
type Renderer interface {
	Render(w io.Writer, path string, t pathmap.RenderTarget) error
}

// Options configure the markdown renderer.
type Options struct {
	SiteTitle string
	// Layout is an html/template file. Empty uses the built-in layout.
	Layout string
	// HighlightStyle is a chroma style name.
	HighlightStyle string
}

// Markdown renders MDX pages with goldmark inside an html/template layout.
// It is safe for concurrent use.
type Markdown struct {
	pages    *pages.Set
	bindings Bindings
	md       goldmark.Markdown
	layout   *template.Template
	title    string

	mu   sync.Mutex
	docs map[string]*mdx.Document
}

// NewMarkdown creates a renderer for the pages in set.
func NewMarkdown(set *pages.Set, bindings Bindings, opts Options) (*Markdown, error) {
	layout, err := loadLayout(opts.Layout)
	if err != nil {
		return nil, err
	}
	style := opts.HighlightStyle
	if style == "" {
		style = "github"
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Component tags are passed through as raw HTML.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Markdown{
		pages:    set,
		bindings: bindings,
		md:       md,
		layout:   layout,
		title:    opts.SiteTitle,
		docs:     map[string]*mdx.Document{},
	}, nil
}

// Renderable reports whether page can be rendered without error for lack
// of a renderer.
func (m *Markdown) Renderable(page string) bool {
	p, ok := m.pages.Lookup(page)
	return ok && p.Kind == pages.KindMDX
}

func (m *Markdown) Render(w io.Writer, path string, t pathmap.RenderTarget) error {
	page, ok := m.pages.Lookup(t.Page)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, t.Page)
	}
	if page.Kind != pages.KindMDX {
		return fmt.Errorf("%w: %s is a %s page", ErrNotRenderable, page.ID, page.Kind)
	}
	doc, err := m.document(page)
	if err != nil {
		return err
	}

	data := PageData{
		SiteTitle: m.title,
		Path:      path,
		Page:      page.ID,
		Params:    t.Params.Clone(),
		Title:     doc.Title,
	}
	if data.Content, err = m.html(doc.Body); err != nil {
		return fmt.Errorf("render %s: %w", page.Source, err)
	}
	if err := m.bind(&data, t); err != nil {
		return err
	}
	if data.Title == "" {
		data.Title = m.title
	}

	var buf bytes.Buffer
	if err := m.layout.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute layout for %s: %w", path, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (m *Markdown) bind(data *PageData, t pathmap.RenderTarget) error {
	for _, b := range m.bindings.Content {
		slug, ok := b.match(t)
		if !ok {
			continue
		}
		entry, found := b.Index.Lookup(slug)
		if !found {
			return fmt.Errorf("%w: %s %s=%s", ErrEntryNotFound, t.Page, b.Param, slug)
		}
		body, err := m.html(entry.Doc.Body)
		if err != nil {
			return fmt.Errorf("render %s: %w", entry.Source, err)
		}
		data.Entry = &EntryData{Slug: entry.Slug, Title: entry.Title, Date: entry.Date, HTML: body}
		if entry.Title != "" {
			data.Title = entry.Title
		}
		break
	}
	for _, b := range m.bindings.Listings {
		if l, ok := b.listing(t); ok {
			data.Listing = l
			break
		}
	}
	return nil
}

func (m *Markdown) document(p pages.Page) (*mdx.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[p.ID]; ok {
		return doc, nil
	}
	raw, err := os.ReadFile(p.Abs)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", p.Source, err)
	}
	doc, err := mdx.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", p.Source, err)
	}
	m.docs[p.ID] = doc
	return doc, nil
}

func (m *Markdown) html(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := m.md.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // markdown output is trusted site content
}
