package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/mdx"
	"git.home.luguber.info/inful/exportmap/internal/pages"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct{}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	plugin, err := mdx.New(cfg.MDX.Extension)
	if err != nil {
		return err
	}
	set, err := pages.NewScanner(cfg.PagesDir(), cfg.Pages.Extensions, plugin).
		WithIgnore(cfg.Pages.Ignore...).
		Scan()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPages, "failed to scan pages").
			WithContext("dir", cfg.PagesDir()).
			Build()
	}
	return PrintPages(g.out(), set)
}

// PrintPages writes one line per page: id, kind, source.
func PrintPages(w io.Writer, set *pages.Set) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PAGE\tKIND\tSOURCE")
	for _, p := range set.All() {
		kind := string(p.Kind)
		if p.Dynamic {
			kind += " (dynamic)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, kind, p.Source)
	}
	return tw.Flush()
}
