package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

const defaultLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if and .Title (ne .Title .SiteTitle)}}{{.Title}} | {{end}}{{.SiteTitle}}</title>
</head>
<body>
<header><a href="/">{{.SiteTitle}}</a></header>
<main data-page="{{.Page}}">
{{.Content}}
{{- with .Entry}}
<article data-slug="{{.Slug}}">
<h1>{{.Title}}</h1>
{{- if .Date}}
<time datetime="{{.Date}}">{{.Date}}</time>
{{- end}}
{{.HTML}}
</article>
{{- end}}
{{- with .Listing}}
<ul class="listing">
{{- range .Items}}
<li>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</li>
{{- end}}
</ul>
<nav class="pagination">
{{- if .Prev}}<a rel="prev" href="{{.Prev}}">Previous</a>{{end}}
<span>Page {{.Number}} of {{.Total}}</span>
{{- if .Next}}<a rel="next" href="{{.Next}}">Next</a>{{end}}
</nav>
{{- end}}
</main>
</body>
</html>
`

func loadLayout(path string) (*template.Template, error) {
	if path == "" {
		return template.New("layout").Parse(defaultLayout)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	t, err := template.New(filepath.Base(path)).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return t, nil
}
