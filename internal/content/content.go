// Package content enumerates MDX content collections for route rules and
// rendering.
package content

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
	"git.home.luguber.info/inful/exportmap/internal/mdx"
)

var (
	// ErrDuplicateSlug indicates two content files share a slug.
	ErrDuplicateSlug = errors.New("duplicate content slug")

	// ErrReadFailed indicates a content file could not be read or parsed.
	ErrReadFailed = errors.New("content read failed")
)

// Entry is one content document.
type Entry struct {
	Slug        string
	Source      string // slash path relative to the content dir
	Abs         string
	Title       string
	Date        string
	Draft       bool
	Fingerprint string
	Doc         *mdx.Document
}

// Source enumerates content entries in slug order.
type Source interface {
	Entries() ([]Entry, error)
}

// DirSource reads MDX files from a directory tree.
type DirSource struct {
	dir           string
	plugin        *mdx.Plugin
	includeDrafts bool
}

// NewDirSource creates a source over dir. A nil plugin uses the default
// MDX extension pattern.
func NewDirSource(dir string, plugin *mdx.Plugin, includeDrafts bool) *DirSource {
	if plugin == nil {
		plugin = mdx.MustNew("")
	}
	return &DirSource{dir: dir, plugin: plugin, includeDrafts: includeDrafts}
}

func (s *DirSource) Dir() string { return s.dir }

// Entries reads every entry. A missing directory has no entries.
func (s *DirSource) Entries() ([]Entry, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		slog.Warn("Content directory not found", logfields.Path(s.dir))
		return nil, nil
	}

	var entries []Entry
	bySlug := map[string]string{}
	err := filepath.Walk(s.dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if p != s.dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !s.plugin.Handles(name) {
			return nil
		}

		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		entry, err := readEntry(p, rel)
		if err != nil {
			return err
		}
		if entry.Draft && !s.includeDrafts {
			slog.Debug("Skipping draft", logfields.File(rel))
			return nil
		}
		if entry.Slug == "" {
			slog.Warn("Content file has an empty slug", logfields.File(rel))
			return nil
		}
		if prev, dup := bySlug[entry.Slug]; dup {
			return fmt.Errorf("%w: %q from %s and %s", ErrDuplicateSlug, entry.Slug, prev, rel)
		}
		bySlug[entry.Slug] = rel
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) || errors.Is(err, ErrReadFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: walk %s: %w", ErrReadFailed, s.dir, err)
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Slug, b.Slug) })
	slog.Debug("Content enumerated", logfields.Source(s.dir), logfields.Count(len(entries)))
	return entries, nil
}

// Load reads the entries into an Index.
func (s *DirSource) Load() (*Index, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}

func readEntry(abs, rel string) (Entry, error) {
	raw, err := os.ReadFile(abs)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %w", ErrReadFailed, rel, err)
	}
	doc, err := mdx.Parse(raw)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %w", ErrReadFailed, rel, err)
	}
	fp, err := Fingerprint(doc)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s: %w", ErrReadFailed, rel, err)
	}

	slug := slugForFile(rel)
	if s := doc.String("slug"); s != "" {
		slug = SlugPath(s)
	}
	return Entry{
		Slug:        slug,
		Source:      rel,
		Abs:         abs,
		Title:       doc.Title,
		Date:        doc.String("date"),
		Draft:       doc.Bool("draft"),
		Fingerprint: fp,
		Doc:         doc,
	}, nil
}

// Fingerprint hashes the document's frontmatter (minus any stored
// fingerprint) and body with mdfp.
func Fingerprint(doc *mdx.Document) (string, error) {
	fields := make(map[string]any, len(doc.Frontmatter))
	for k, v := range doc.Frontmatter {
		if k == mdfp.FingerprintField {
			continue
		}
		fields[k] = v
	}
	fm := ""
	if len(fields) > 0 {
		out, err := yaml.Marshal(fields)
		if err != nil {
			return "", fmt.Errorf("serialize frontmatter: %w", err)
		}
		fm = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(doc.Body)), nil
}

// Index is a loaded, immutable snapshot of a source.
type Index struct {
	entries []Entry
	bySlug  map[string]int
}

// NewIndex indexes entries, sorting them by slug.
func NewIndex(entries []Entry) *Index {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b Entry) int { return strings.Compare(a.Slug, b.Slug) })
	idx := &Index{entries: sorted, bySlug: make(map[string]int, len(sorted))}
	for i, e := range sorted {
		idx.bySlug[e.Slug] = i
	}
	return idx
}

func (i *Index) Entries() ([]Entry, error) { return slices.Clone(i.entries), nil }

// Slugs lists entry slugs in order. Index is a pathmap.SlugSource.
func (i *Index) Slugs() ([]string, error) {
	out := make([]string, len(i.entries))
	for n, e := range i.entries {
		out[n] = e.Slug
	}
	return out, nil
}

// Lookup returns the entry with the given slug.
func (i *Index) Lookup(slug string) (Entry, bool) {
	n, ok := i.bySlug[slug]
	if !ok {
		return Entry{}, false
	}
	return i.entries[n], true
}

func (i *Index) Len() int { return len(i.entries) }

// Fingerprint combines the entry fingerprints in slug order.
func (i *Index) Fingerprint() string {
	parts := make([]string, len(i.entries))
	for n, e := range i.entries {
		parts[n] = e.Slug + "=" + e.Fingerprint
	}
	return mdfp.CalculateFingerprintFromParts("", strings.Join(parts, "\n"))
}
