package pathmap

import (
	"fmt"
	"slices"
	"strconv"
)

// SlugSource enumerates content entries by slug. Implementations must be
// read-only; the order they return is not relied upon.
type SlugSource interface {
	Slugs() ([]string, error)
}

// SlugList is a fixed SlugSource.
type SlugList []string

func (l SlugList) Slugs() ([]string, error) { return slices.Clone(l), nil }

// sortedSlugs enumerates src in sorted order. A nil source has no entries.
func sortedSlugs(rule string, src SlugSource) ([]string, error) {
	if src == nil {
		return nil, nil
	}
	slugs, err := src.Slugs()
	if err != nil {
		return nil, &PathError{Err: ErrSourceFailed, Rule: rule, Reason: err.Error()}
	}
	slugs = slices.Clone(slugs)
	slices.Sort(slugs)
	return slugs, nil
}

// ContentRule maps every content entry to Prefix/<slug>, rendered by Page
// with the slug under Param: /posts/a -> page /post {slug: a}.
type ContentRule struct {
	RuleName string
	Prefix   string
	Page     string
	Param    string
	Source   SlugSource
	Policy   Policy
}

func (r ContentRule) Name() string { return r.RuleName }

func (r ContentRule) Apply(b *Builder) error {
	slugs, err := sortedSlugs(r.RuleName, r.Source)
	if err != nil {
		return err
	}
	for _, slug := range slugs {
		target := RenderTarget{Page: r.Page, Params: Params{r.Param: slug}}
		if err := b.Put(r.RuleName, JoinPath(r.Prefix, slug), target, r.Policy); err != nil {
			return err
		}
	}
	return nil
}

// PaginateRule adds listing pages Prefix/2 ... Prefix/N for a content source,
// N = ceil(entries / PerPage). The first listing page is the bare Prefix and
// is expected to come from the default table.
type PaginateRule struct {
	RuleName string
	Prefix   string
	Page     string
	Param    string
	PerPage  int
	Source   SlugSource
}

func (r PaginateRule) Name() string { return r.RuleName }

func (r PaginateRule) Apply(b *Builder) error {
	if r.PerPage <= 0 {
		return fmt.Errorf("per_page must be positive, got %d", r.PerPage)
	}
	slugs, err := sortedSlugs(r.RuleName, r.Source)
	if err != nil {
		return err
	}
	pages := (len(slugs) + r.PerPage - 1) / r.PerPage
	for n := 2; n <= pages; n++ {
		num := strconv.Itoa(n)
		target := RenderTarget{Page: r.Page, Params: Params{r.Param: num}}
		if err := b.Add(r.RuleName, JoinPath(r.Prefix, num), target); err != nil {
			return err
		}
	}
	return nil
}

// StaticRule adds a single fixed entry.
type StaticRule struct {
	RuleName string
	Path     string
	Target   RenderTarget
	Policy   Policy
}

func (r StaticRule) Name() string { return r.RuleName }

func (r StaticRule) Apply(b *Builder) error {
	return b.Put(r.RuleName, r.Path, r.Target, r.Policy)
}

// ExcludeRule removes entries. Paths that are not in the table are ignored.
type ExcludeRule struct {
	RuleName string
	Paths    []string
}

func (r ExcludeRule) Name() string { return r.RuleName }

func (r ExcludeRule) Apply(b *Builder) error {
	for _, p := range r.Paths {
		b.Remove(p)
	}
	return nil
}

// RuleFunc adapts a function into a Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(b *Builder) error
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Apply(b *Builder) error { return r.Fn(b) }
