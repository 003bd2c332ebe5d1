package pathmap

import (
	"path"
	"strings"
)

// ValidatePath returns an empty string when p is a well-formed output path,
// otherwise the reason it is not.
//
// Well-formed paths are absolute, have no trailing slash (except "/"),
// no empty or dot segments, and no query, fragment, wildcard, or whitespace.
func ValidatePath(p string) string {
	switch {
	case p == "":
		return "path cannot be empty"
	case !strings.HasPrefix(p, "/"):
		return "path must start with /"
	case p == "/":
		return ""
	case strings.HasSuffix(p, "/"):
		return "path cannot end with /"
	case strings.ContainsAny(p, "?#"):
		return "path cannot contain a query string or fragment"
	case strings.Contains(p, "*"):
		return "path cannot contain wildcards"
	case strings.ContainsAny(p, " \t\r\n"):
		return "path cannot contain whitespace"
	}
	for _, seg := range strings.Split(p[1:], "/") {
		switch seg {
		case "":
			return "path cannot contain empty segments"
		case ".", "..":
			return "path cannot contain dot segments"
		}
	}
	return ""
}

// JoinPath joins a route prefix and a trailing segment into an output path.
func JoinPath(prefix, segment string) string {
	return path.Join("/", prefix, segment)
}

// NormalizePath turns request-style paths ("posts/a/", "/posts/a/index.html")
// into table keys ("/posts/a").
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = path.Clean("/" + p)
	switch {
	case strings.HasSuffix(p, "/index.html"):
		p = strings.TrimSuffix(p, "/index.html")
	case strings.HasSuffix(p, ".html"):
		p = strings.TrimSuffix(p, ".html")
	}
	if p == "" || p == "/index" {
		return "/"
	}
	return p
}
