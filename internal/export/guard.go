package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutputOverlap indicates an output directory whose promotion would
// replace or delete an input.
var ErrOutputOverlap = errors.New("output directory overlaps an input")

// CheckOutput rejects an output directory that equals, contains or sits
// inside any of inputs. Roots may contain the output directory but must not
// be replaced by it. The sibling staging and backup directories are checked
// the same way, since an export clears both.
func CheckOutput(out string, inputs, roots []string) error {
	absOut, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolve output %s: %w", out, err)
	}
	replaced := []string{absOut, absOut + stageSuffix, absOut + prevSuffix}

	for _, in := range inputs {
		if in == "" {
			continue
		}
		absIn, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolve input %s: %w", in, err)
		}
		if within(absIn, absOut) {
			return fmt.Errorf("%w: %s is inside input %s", ErrOutputOverlap, out, in)
		}
		for _, r := range replaced {
			if within(r, absIn) {
				return fmt.Errorf("%w: export would replace %s", ErrOutputOverlap, in)
			}
		}
	}
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve root %s: %w", root, err)
		}
		for _, r := range replaced {
			if within(r, absRoot) {
				return fmt.Errorf("%w: export would replace %s", ErrOutputOverlap, root)
			}
		}
	}
	return nil
}

// within reports whether p is dir or lies below it. Both must be absolute.
func within(dir, p string) bool {
	if p == dir {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}
