// Package linkcheck finds internal links in exported HTML that point at
// paths missing from the resolved table.
package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// Link is a URL-bearing attribute found in an HTML document.
type Link struct {
	URL       string
	Text      string
	Tag       string
	Attribute string
}

// linkAttrs maps elements to the attribute holding their URL.
var linkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
	"source": "src",
}

// Extract returns every link in the document, in document order.
func Extract(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := getAttr(n, attr); v != "" {
					text := ""
					switch n.Data {
					case "a":
						text = extractText(n)
					case "img":
						text = getAttr(n, "alt")
					}
					links = append(links, Link{URL: v, Text: text, Tag: n.Data, Attribute: attr})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(extractText(c))
	}
	return strings.TrimSpace(b.String())
}

// AssetPrefixes are path prefixes served as static files rather than routes.
var AssetPrefixes = []string{"/static/", "/_next/"}

// Broken is an internal link whose target is not an exported route.
type Broken struct {
	From   string `json:"from"`
	URL    string `json:"url"`
	Target string `json:"target"`
	Tag    string `json:"tag"`
}

func (b Broken) String() string {
	return fmt.Sprintf("%s: <%s> %s -> %s", b.From, b.Tag, b.URL, b.Target)
}

// Check resolves links found on the page served at URL path from and
// reports internal ones that do not land on a path in table.
func Check(from string, links []Link, table pathmap.Table) []Broken {
	base := &url.URL{Path: from}
	var broken []Broken
	for _, l := range links {
		target, ok := internalTarget(base, l.URL)
		if !ok {
			continue
		}
		if _, found := table[target]; found || isAsset(target) {
			continue
		}
		broken = append(broken, Broken{From: from, URL: l.URL, Target: target, Tag: l.Tag})
	}
	return broken
}

// internalTarget resolves raw against base and normalizes it to a table key.
// It reports false for external, fragment-only and special-scheme links.
func internalTarget(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "//") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	resolved := base.ResolveReference(u)
	return pathmap.NormalizePath(resolved.Path), true
}

func isAsset(p string) bool {
	for _, prefix := range AssetPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	ext := path.Ext(p)
	return ext != "" && ext != ".html"
}
