package mdx

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Document is a parsed MDX source.
type Document struct {
	Frontmatter map[string]any
	// ESM holds top-level import/export blocks, in source order.
	ESM []string
	// Body is the markdown with frontmatter and ESM blocks removed.
	Body  []byte
	Title string
}

// String returns a frontmatter field as a string, or "" when absent.
func (d *Document) String(key string) string {
	v, ok := d.Frontmatter[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Bool returns a frontmatter field as a bool. Only YAML booleans count.
func (d *Document) Bool(key string) bool {
	b, _ := d.Frontmatter[key].(bool)
	return b
}

// Parse splits src into frontmatter, ESM blocks and body, and derives a title
// from the `title` field or, failing that, the first level-1 heading.
func Parse(src []byte) (*Document, error) {
	raw, body, _, err := SplitFrontmatter(src)
	if err != nil {
		return nil, err
	}
	fields, err := ParseFrontmatter(raw)
	if err != nil {
		return nil, err
	}

	esm, stripped, err := splitESM(body)
	if err != nil {
		return nil, fmt.Errorf("split ESM blocks: %w", err)
	}
	doc := &Document{Frontmatter: fields, ESM: esm, Body: stripped}
	doc.Title = doc.String("title")
	if doc.Title == "" {
		doc.Title = firstHeading(stripped)
	}
	return doc, nil
}

// splitESM removes top-level import/export blocks. A block starts with
// "import " or "export " at column zero outside a code fence and runs to the
// next blank line. The scan buffer fits the whole body, so long lines such
// as inlined data URIs are kept.
func splitESM(body []byte) ([]string, []byte, error) {
	var (
		esm     []string
		out     bytes.Buffer
		block   []string
		fence   string
		inBlock bool
	)
	flush := func() {
		if len(block) > 0 {
			esm = append(esm, strings.Join(block, "\n"))
			block = nil
		}
		inBlock = false
	}

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), max(len(body)+1, 64*1024))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		if inBlock {
			if trimmed == "" {
				flush()
				continue
			}
			block = append(block, line)
			continue
		}

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
		} else if f := fenceMarker(trimmed); f != "" {
			fence = f
		} else if strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "export ") {
			inBlock = true
			block = append(block, line)
			continue
		}
		out.WriteString(strings.TrimSuffix(line, "\r"))
		out.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	flush()
	return esm, out.Bytes(), nil
}

func fenceMarker(line string) string {
	for _, f := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, f) {
			return f
		}
	}
	return ""
}

func firstHeading(body []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(body))
	title := ""
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			title = strings.TrimSpace(nodeText(h, body))
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

func nodeText(n gmast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
