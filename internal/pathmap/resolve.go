package pathmap

import "fmt"

// Rule adds, replaces, or removes entries while the table is being resolved.
type Rule interface {
	Name() string
	Apply(b *Builder) error
}

// Resolve runs rules in order over a copy of defaults and returns the
// resolved table. defaults is never modified.
//
// With no rules the result equals defaults, so resolving an already
// resolved table is a no-op.
func Resolve(defaults Table, known PageSet, rules ...Rule) (Table, error) {
	table, _, err := ResolveWithReport(defaults, known, rules...)
	return table, err
}

// ResolveWithReport is Resolve, also returning what each rule did.
func ResolveWithReport(defaults Table, known PageSet, rules ...Rule) (Table, Report, error) {
	b, err := NewBuilder(defaults, known)
	if err != nil {
		return nil, Report{}, fmt.Errorf("default table: %w", err)
	}
	for _, r := range rules {
		if err := r.Apply(b); err != nil {
			return nil, Report{}, fmt.Errorf("rule %q: %w", r.Name(), err)
		}
	}
	return b.Table(), b.Report(), nil
}
