package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Defaults string `help:"JSON default path table supplied by the host framework" type:"existingfile"`
	Format   string `help:"Output format" enum:"text,json,yaml" default:"text"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	s, err := loadSite(context.Background(), cfg, r.Defaults, nil)
	if err != nil {
		return err
	}
	return PrintTable(g.out(), s.Table, r.Format)
}

// route is one table entry as printed by resolve.
type route struct {
	Path   string         `json:"path" yaml:"path"`
	Page   string         `json:"page" yaml:"page"`
	Params pathmap.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

func routes(t pathmap.Table) []route {
	out := make([]route, 0, len(t))
	for _, p := range t.Paths() {
		out = append(out, route{Path: p, Page: t[p].Page, Params: t[p].Params})
	}
	return out
}

// PrintTable writes the table sorted by path.
func PrintTable(w io.Writer, t pathmap.Table, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(routes(t))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(routes(t)); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "PATH\tPAGE\tPARAMS")
		for _, r := range routes(t) {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Path, r.Page, r.Params)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%d routes, fingerprint %s\n", len(t), t.Fingerprint())
		return err
	}
}
