package history

import (
	"fmt"
	"slices"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// Delta lists output paths that differ between two tables, each sorted.
type Delta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// Diff compares an older and a newer table.
func Diff(old, cur pathmap.Table) Delta {
	d := Delta{Added: []string{}, Removed: []string{}, Changed: []string{}}
	for p, t := range cur {
		prev, ok := old[p]
		switch {
		case !ok:
			d.Added = append(d.Added, p)
		case !prev.Equal(t):
			d.Changed = append(d.Changed, p)
		}
	}
	for p := range old {
		if _, ok := cur[p]; !ok {
			d.Removed = append(d.Removed, p)
		}
	}
	slices.Sort(d.Added)
	slices.Sort(d.Removed)
	slices.Sort(d.Changed)
	return d
}

// Empty reports whether the tables were identical.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func (d Delta) String() string {
	return fmt.Sprintf("+%d -%d ~%d", len(d.Added), len(d.Removed), len(d.Changed))
}
