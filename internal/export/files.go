package export

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// ErrOutputCollision indicates two output paths that map to one file.
var ErrOutputCollision = errors.New("output file collision")

// OutputFile maps an output path to the slash-separated file it is written
// to, relative to the export directory: "/" -> index.html, "/a/b" -> a/b.html,
// or a/b/index.html with trailingSlash.
func OutputFile(p string, trailingSlash bool) string {
	if p == "/" {
		return "index.html"
	}
	rel := strings.TrimPrefix(p, "/")
	if trailingSlash {
		return path.Join(rel, "index.html")
	}
	return rel + ".html"
}

// servedAt is the URL path a browser uses for p, which relative links
// resolve against.
func servedAt(p string, trailingSlash bool) string {
	if trailingSlash && p != "/" {
		return p + "/"
	}
	return p
}

// planFiles assigns a file to every path, rejecting collisions.
func planFiles(table pathmap.Table, trailingSlash bool) (map[string]string, error) {
	files := make(map[string]string, len(table))
	owner := make(map[string]string, len(table))
	for _, p := range table.Paths() {
		f := OutputFile(p, trailingSlash)
		if prev, dup := owner[f]; dup {
			return nil, fmt.Errorf("%w: %q and %q both write %s", ErrOutputCollision, prev, p, f)
		}
		owner[f] = p
		files[p] = f
	}
	return files, nil
}
