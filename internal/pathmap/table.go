package pathmap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// Params are the named parameters of a render target. Order is irrelevant.
type Params map[string]string

// Clone returns a copy. The copy of a nil Params is empty, never nil.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Equal reports whether both parameter sets hold the same pairs.
// A nil set equals an empty one.
func (p Params) Equal(o Params) bool {
	return maps.Equal(p, o)
}

// Keys returns the parameter names, sorted.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// String renders the parameters as {k=v, ...} in key order.
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, k+"="+p[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// encode renders the parameters canonically for hashing.
func (p Params) encode() string {
	v := url.Values{}
	for k, val := range p {
		v.Set(k, val)
	}
	return v.Encode()
}

// RenderTarget names the page that renders an output path and the
// parameters for that instance.
type RenderTarget struct {
	Page   string `json:"page" yaml:"page"`
	Params Params `json:"params" yaml:"params"`
}

// Target is shorthand for building a RenderTarget.
func Target(page string, params Params) RenderTarget {
	return RenderTarget{Page: page, Params: params.Clone()}
}

// Clone returns a deep copy.
func (t RenderTarget) Clone() RenderTarget {
	return RenderTarget{Page: t.Page, Params: t.Params.Clone()}
}

// Equal reports whether both targets render the same page instance.
func (t RenderTarget) Equal(o RenderTarget) bool {
	return t.Page == o.Page && t.Params.Equal(o.Params)
}

func (t RenderTarget) String() string {
	return fmt.Sprintf("page %s %s", t.Page, t.Params)
}

// Table maps output paths to render targets.
type Table map[string]RenderTarget

// Clone returns a deep copy. Nil params in t become empty params in the copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for p, target := range t {
		out[p] = target.Clone()
	}
	return out
}

// Paths returns the output paths in sorted order.
func (t Table) Paths() []string {
	return slices.Sorted(maps.Keys(t))
}

// Equal reports whether both tables hold the same entries.
func (t Table) Equal(o Table) bool {
	return maps.EqualFunc(t, o, RenderTarget.Equal)
}

// Pages returns the distinct page identifiers referenced by the table, sorted.
func (t Table) Pages() []string {
	seen := make(map[string]struct{}, len(t))
	for _, target := range t {
		seen[target.Page] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Validate checks every output path with ValidatePath.
func (t Table) Validate() error {
	for _, p := range t.Paths() {
		if reason := ValidatePath(p); reason != "" {
			return &PathError{Err: ErrInvalidPath, Path: p, Reason: reason, Target: t[p]}
		}
	}
	return nil
}

// Fingerprint returns a stable SHA-256 digest of the table contents.
// Equal tables always share a fingerprint regardless of map iteration order.
func (t Table) Fingerprint() string {
	h := sha256.New()
	for _, p := range t.Paths() {
		target := t[p]
		_, _ = fmt.Fprintf(h, "%s\t%s\t%s\n", p, target.Page, target.Params.encode())
	}
	return hex.EncodeToString(h.Sum(nil))
}
