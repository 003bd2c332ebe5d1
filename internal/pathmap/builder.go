package pathmap

import "maps"

// Origin labels entries that came from the default table.
const OriginDefault = "default"

// Policy decides what happens when a generated entry lands on an existing
// output path with a different target.
type Policy int

const (
	// Reject fails with ErrDuplicatePath.
	Reject Policy = iota
	// Replace overwrites the existing entry.
	Replace
)

// PageSet reports which page identifiers the site can render.
type PageSet interface {
	Has(page string) bool
}

// PageList is a PageSet backed by a fixed list of identifiers.
type PageList map[string]struct{}

// Pages builds a PageList.
func Pages(ids ...string) PageList {
	s := make(PageList, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (l PageList) Has(page string) bool {
	_, ok := l[page]
	return ok
}

// Builder accumulates the resolved table. It is not safe for concurrent use;
// resolution has exactly one writer.
type Builder struct {
	known  PageSet
	table  Table
	origin map[string]string
	report Report
}

// NewBuilder starts from a validated copy of defaults. Default entries are
// trusted as-is: their pages come from the framework, so only generated
// entries are checked against known.
func NewBuilder(defaults Table, known PageSet) (*Builder, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	if known == nil {
		known = Pages()
	}
	b := &Builder{
		known:  known,
		table:  defaults.Clone(),
		origin: make(map[string]string, len(defaults)),
		report: Report{Defaults: len(defaults), Generated: map[string]int{}},
	}
	for p := range b.table {
		b.origin[p] = OriginDefault
	}
	return b, nil
}

// Add inserts an entry generated by rule, rejecting collisions.
func (b *Builder) Add(rule, path string, target RenderTarget) error {
	return b.put(rule, path, target, Reject)
}

// Set inserts an entry generated by rule, replacing any existing entry.
func (b *Builder) Set(rule, path string, target RenderTarget) error {
	return b.put(rule, path, target, Replace)
}

// Put inserts an entry with an explicit policy.
func (b *Builder) Put(rule, path string, target RenderTarget, policy Policy) error {
	return b.put(rule, path, target, policy)
}

func (b *Builder) put(rule, path string, target RenderTarget, policy Policy) error {
	if reason := ValidatePath(path); reason != "" {
		return &PathError{Err: ErrInvalidPath, Path: path, Rule: rule, Reason: reason, Target: target.Clone()}
	}
	if !b.known.Has(target.Page) {
		return &PathError{Err: ErrUnresolvableReference, Path: path, Rule: rule, Target: target.Clone()}
	}
	if existing, ok := b.table[path]; ok {
		if existing.Equal(target) {
			return nil
		}
		if policy != Replace {
			ex := existing.Clone()
			return &PathError{Err: ErrDuplicatePath, Path: path, Rule: rule, Target: target.Clone(), Existing: &ex}
		}
		b.report.Replaced++
	}
	b.table[path] = target.Clone()
	b.origin[path] = rule
	b.report.Generated[rule]++
	return nil
}

// Remove drops an entry. It reports whether the entry existed.
func (b *Builder) Remove(path string) bool {
	if _, ok := b.table[path]; !ok {
		return false
	}
	delete(b.table, path)
	delete(b.origin, path)
	b.report.Removed++
	return true
}

// Get returns a copy of the entry at path.
func (b *Builder) Get(path string) (RenderTarget, bool) {
	t, ok := b.table[path]
	if !ok {
		return RenderTarget{}, false
	}
	return t.Clone(), true
}

// Len returns the current number of entries.
func (b *Builder) Len() int { return len(b.table) }

// Origin returns the rule that produced path, or OriginDefault.
func (b *Builder) Origin(path string) string { return b.origin[path] }

// Table returns a copy of the accumulated table.
func (b *Builder) Table() Table { return b.table.Clone() }

// Report returns counters describing what the rules did.
func (b *Builder) Report() Report {
	r := b.report
	r.Generated = maps.Clone(b.report.Generated)
	r.Total = len(b.table)
	return r
}

// Report summarizes one resolution.
type Report struct {
	Defaults  int            // entries in the default table
	Generated map[string]int // entries written per rule
	Replaced  int            // entries overwritten under the Replace policy
	Removed   int            // entries removed by exclusion rules
	Total     int            // entries in the resolved table
}
