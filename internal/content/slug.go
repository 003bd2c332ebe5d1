package content

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lower-cases s, strips diacritics, and collapses every run of
// characters other than letters and digits into a single '-'.
// "Héllo, Wörld!" -> "hello-world".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SlugPath slugifies each '/'-separated segment and drops empty ones.
func SlugPath(p string) string {
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if s := Slugify(seg); s != "" {
			segs = append(segs, s)
		}
	}
	return strings.Join(segs, "/")
}

// slugForFile derives a slug from a slash path relative to the content dir:
// "2024/Hello World.mdx" -> "2024/hello-world", "guide/index.mdx" -> "guide".
func slugForFile(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if rel == "index" {
		return ""
	}
	rel = strings.TrimSuffix(rel, "/index")
	return SlugPath(rel)
}
