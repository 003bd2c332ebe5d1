// Package mdx recognizes and parses markdown-with-components page sources.
//
// It is the Go side of an MDX loader registration: a regular expression
// decides which files are MDX, and Parse splits such a file into YAML
// frontmatter, ESM import/export blocks, and the markdown body.
package mdx

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultExtension matches .md and .mdx files.
const DefaultExtension = `\.mdx?$`

// markdownExtensions are the extensions checked by Extensions.
var markdownExtensions = []string{"md", "mdx", "markdown", "mdown", "mkd"}

// Plugin recognizes markdown-with-components sources by file name.
type Plugin struct {
	pattern *regexp.Regexp
}

// New compiles the extension pattern. An empty pattern uses DefaultExtension.
func New(pattern string) (*Plugin, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultExtension
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile mdx extension %q: %w", pattern, err)
	}
	return &Plugin{pattern: re}, nil
}

// MustNew is New for patterns known to be valid.
func MustNew(pattern string) *Plugin {
	p, err := New(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Pattern returns the extension pattern source.
func (p *Plugin) Pattern() string { return p.pattern.String() }

// Handles reports whether filename is an MDX source.
func (p *Plugin) Handles(filename string) bool {
	return p.pattern.MatchString(filepath.Base(filename))
}

// Supports reports whether files with extension ext (without the dot) are handled.
func (p *Plugin) Supports(ext string) bool {
	return p.Handles("page." + strings.TrimPrefix(ext, "."))
}

// Extensions lists the common markdown extensions the plugin handles.
func (p *Plugin) Extensions() []string {
	var out []string
	for _, ext := range markdownExtensions {
		if p.Supports(ext) {
			out = append(out, ext)
		}
	}
	return out
}
