package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `help:"Number of runs to list" default:"10"`
	Diff  bool `help:"Show the route changes between the last two runs"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.Resolve(cfg.History.Path))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryHistory, "failed to open history").
			WithContext("path", cfg.History.Path).
			Build()
	}
	defer func() { _ = store.Close() }()
	return RunHistory(context.Background(), g.out(), store, h.Limit, h.Diff)
}

// RunHistory lists recent runs, or with diff the delta of the last two.
func RunHistory(ctx context.Context, w io.Writer, store *history.Store, limit int, diff bool) error {
	if !diff {
		runs, err := store.List(ctx, limit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "RUN\tCREATED\tROUTES\tOUTCOME\tFINGERPRINT")
		for _, r := range runs {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				r.ID, r.CreatedAt.Format(time.RFC3339), r.Routes, r.Outcome, shortFingerprint(r.Fingerprint))
		}
		return tw.Flush()
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		return err
	}
	if len(runs) < 2 {
		_, err := fmt.Fprintln(w, "fewer than two runs recorded")
		return err
	}
	cur, err := store.Get(ctx, runs[0].ID)
	if err != nil {
		return err
	}
	prev, err := store.Get(ctx, runs[1].ID)
	if err != nil {
		return err
	}
	d := history.Diff(prev.Table, cur.Table)
	_, _ = fmt.Fprintf(w, "%s -> %s: %s\n", prev.ID, cur.ID, d)
	for _, p := range d.Added {
		_, _ = fmt.Fprintf(w, "+ %s\t%s\n", p, cur.Table[p])
	}
	for _, p := range d.Removed {
		_, _ = fmt.Fprintf(w, "- %s\t%s\n", p, prev.Table[p])
	}
	for _, p := range d.Changed {
		_, _ = fmt.Fprintf(w, "~ %s\t%s -> %s\n", p, prev.Table[p], cur.Table[p])
	}
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
