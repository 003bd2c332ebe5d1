package render

import (
	"html/template"
	"strconv"

	"git.home.luguber.info/inful/exportmap/internal/content"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// Bindings connect pages to the content they display.
type Bindings struct {
	Content  []ContentBinding
	Listings []ListingBinding
}

// ContentBinding renders the entry whose slug is in Param for targets of Page.
type ContentBinding struct {
	Page   string
	Param  string
	Prefix string
	Index  *content.Index
}

func (b ContentBinding) match(t pathmap.RenderTarget) (string, bool) {
	if t.Page != b.Page || b.Index == nil {
		return "", false
	}
	slug, ok := t.Params[b.Param]
	return slug, ok
}

// ListingBinding renders a page of entries for targets of Page. The page
// number is in Param; targets without it show the first page.
type ListingBinding struct {
	Page    string
	Param   string
	Prefix  string
	PerPage int
	Index   *content.Index
	// EntryPrefix is where entries are published, for item links.
	EntryPrefix string
}

func (b ListingBinding) listing(t pathmap.RenderTarget) (*ListingData, bool) {
	if t.Page != b.Page || b.Index == nil || b.PerPage <= 0 {
		return nil, false
	}
	n := 1
	if raw, ok := t.Params[b.Param]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return nil, false
		}
		n = v
	}

	entries, _ := b.Index.Entries()
	total := (len(entries) + b.PerPage - 1) / b.PerPage
	start := (n - 1) * b.PerPage
	end := min(start+b.PerPage, len(entries))
	l := &ListingData{Number: n, Total: total}
	if start < len(entries) {
		for _, e := range entries[start:end] {
			item := ListingItem{Title: e.Title, Date: e.Date, Slug: e.Slug}
			if item.Title == "" {
				item.Title = e.Slug
			}
			if b.EntryPrefix != "" {
				item.URL = pathmap.JoinPath(b.EntryPrefix, e.Slug)
			}
			l.Items = append(l.Items, item)
		}
	}
	if n > 1 {
		l.Prev = b.pageURL(n - 1)
	}
	if n < total {
		l.Next = b.pageURL(n + 1)
	}
	return l, true
}

func (b ListingBinding) pageURL(n int) string {
	if n == 1 {
		return pathmap.JoinPath(b.Prefix, "")
	}
	return pathmap.JoinPath(b.Prefix, strconv.Itoa(n))
}

// PageData is passed to the layout template.
type PageData struct {
	SiteTitle string
	Path      string
	Page      string
	Params    pathmap.Params
	Title     string
	Content   template.HTML
	Entry     *EntryData
	Listing   *ListingData
}

// EntryData describes the bound content entry.
type EntryData struct {
	Slug  string
	Title string
	Date  string
	HTML  template.HTML
}

// ListingData describes one listing page.
type ListingData struct {
	Number int
	Total  int
	Items  []ListingItem
	Prev   string
	Next   string
}

// ListingItem is one entry on a listing page.
type ListingItem struct {
	Title string
	Date  string
	Slug  string
	URL   string
}
