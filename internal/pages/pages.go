// Package pages discovers page sources and derives the default path table.
package pages

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/mdx"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

var (
	// ErrPageCollision indicates two sources resolve to one page identifier.
	ErrPageCollision = errors.New("page collision")

	// ErrWalkFailed indicates traversal of the pages directory failed.
	ErrWalkFailed = errors.New("pages directory walk failed")
)

// Kind tells how a page is rendered.
type Kind string

const (
	KindScript Kind = "script"
	KindMDX    Kind = "mdx"
)

// ScriptExtensions are page extensions rendered by the host's script runtime.
var ScriptExtensions = []string{"js", "jsx", "ts", "tsx"}

// IsScriptExtension reports whether ext (without the dot) is a script extension.
func IsScriptExtension(ext string) bool {
	return slices.Contains(ScriptExtensions, strings.ToLower(strings.TrimPrefix(ext, ".")))
}

// Page is one discovered page source.
type Page struct {
	ID        string `json:"id"`
	Source    string `json:"source"` // slash path relative to the pages dir
	Abs       string `json:"-"`
	Extension string `json:"extension"`
	Kind      Kind   `json:"kind"`
	// Dynamic pages ([param] segments) are only reachable through rules.
	Dynamic bool `json:"dynamic,omitempty"`
}

// Scanner walks a pages directory.
type Scanner struct {
	dir    string
	exts   []string
	plugin *mdx.Plugin
	ignore []string
}

// NewScanner creates a scanner for the page extensions exts. A nil plugin
// uses the default MDX extension pattern.
func NewScanner(dir string, exts []string, plugin *mdx.Plugin) *Scanner {
	if plugin == nil {
		plugin = mdx.MustNew("")
	}
	norm := make([]string, 0, len(exts))
	for _, e := range exts {
		norm = append(norm, strings.ToLower(strings.TrimPrefix(e, ".")))
	}
	return &Scanner{dir: dir, exts: norm, plugin: plugin}
}

// WithIgnore adds glob patterns matched against the slash relative path.
func (s *Scanner) WithIgnore(patterns ...string) *Scanner {
	s.ignore = append(s.ignore, patterns...)
	return s
}

// Scan discovers every page. A missing directory yields an empty set.
func (s *Scanner) Scan() (*Set, error) {
	set := &Set{pages: map[string]Page{}}
	if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		slog.Warn("Pages directory not found", logfields.Path(s.dir))
		return set, nil
	}

	err := filepath.Walk(s.dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == s.dir {
			return nil
		}
		name := info.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			// API routes have no static output.
			if rel == "api" {
				return filepath.SkipDir
			}
			return nil
		}
		if s.ignored(rel) {
			return nil
		}

		page, ok := s.classify(rel, p)
		if !ok {
			return nil
		}
		if prev, dup := set.pages[page.ID]; dup {
			return fmt.Errorf("%w: %s and %s both resolve to %s", ErrPageCollision, prev.Source, page.Source, page.ID)
		}
		set.pages[page.ID] = page
		slog.Debug("Discovered page", logfields.Page(page.ID), logfields.File(rel), slog.String("kind", string(page.Kind)))
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPageCollision) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrWalkFailed, s.dir, err)
	}

	slog.Info("Pages discovered", logfields.Path(s.dir), logfields.Count(set.Len()))
	return set, nil
}

func (s *Scanner) ignored(rel string) bool {
	for _, pattern := range s.ignore {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(rel)); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) classify(rel, abs string) (Page, bool) {
	ext := strings.TrimPrefix(path.Ext(rel), ".")
	if ext == "" || !slices.Contains(s.exts, strings.ToLower(ext)) {
		return Page{}, false
	}

	var kind Kind
	switch {
	case s.plugin.Handles(rel):
		kind = KindMDX
	case IsScriptExtension(ext):
		kind = KindScript
	default:
		return Page{}, false
	}

	id := PageID(rel)
	return Page{
		ID:        id,
		Source:    rel,
		Abs:       abs,
		Extension: ext,
		Kind:      kind,
		Dynamic:   strings.Contains(id, "["),
	}, true
}

// PageID maps a slash path relative to the pages dir to its page identifier:
// index.js -> /, about.mdx -> /about, blog/index.mdx -> /blog.
func PageID(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if rel == "index" {
		return "/"
	}
	rel = strings.TrimSuffix(rel, "/index")
	return "/" + rel
}

// Set is the discovered page collection. It implements pathmap.PageSet.
type Set struct {
	pages map[string]Page
}

// NewSet builds a set from pages, e.g. for tests or hosts that discover
// pages themselves.
func NewSet(pages ...Page) *Set {
	s := &Set{pages: make(map[string]Page, len(pages))}
	for _, p := range pages {
		s.pages[p.ID] = p
	}
	return s
}

func (s *Set) Has(id string) bool {
	_, ok := s.pages[id]
	return ok
}

// Lookup returns the page with identifier id.
func (s *Set) Lookup(id string) (Page, bool) {
	p, ok := s.pages[id]
	return p, ok
}

func (s *Set) Len() int { return len(s.pages) }

// IDs returns the page identifiers in sorted order.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.pages))
	for id := range s.pages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All returns the pages sorted by identifier.
func (s *Set) All() []Page {
	out := make([]Page, 0, len(s.pages))
	for _, id := range s.IDs() {
		out = append(out, s.pages[id])
	}
	return out
}

// DefaultTable maps every static page to itself with empty params.
// Dynamic pages are left out.
func (s *Set) DefaultTable() pathmap.Table {
	t := make(pathmap.Table, len(s.pages))
	for id, p := range s.pages {
		if p.Dynamic {
			continue
		}
		t[id] = pathmap.Target(id, nil)
	}
	return t
}
