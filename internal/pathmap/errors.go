package pathmap

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableReference indicates a generated entry references a page
	// identifier the site does not know.
	ErrUnresolvableReference = errors.New("unresolvable reference")

	// ErrDuplicatePath indicates two entries collide on one output path with
	// different render targets and no override policy.
	ErrDuplicatePath = errors.New("duplicate output path")

	// ErrInvalidPath indicates an output path that is not a well-formed absolute path.
	ErrInvalidPath = errors.New("invalid output path")

	// ErrSourceFailed indicates a rule could not enumerate its content source.
	ErrSourceFailed = errors.New("content source enumeration failed")
)

// PathError describes a resolution failure for a single output path.
// It matches its sentinel with errors.Is.
type PathError struct {
	Err      error
	Path     string
	Rule     string
	Reason   string
	Target   RenderTarget
	Existing *RenderTarget
}

func (e *PathError) Error() string {
	rule := ""
	if e.Rule != "" {
		rule = fmt.Sprintf(" (rule %q)", e.Rule)
	}
	switch {
	case errors.Is(e.Err, ErrDuplicatePath) && e.Existing != nil:
		return fmt.Sprintf("%v %q%s: %s conflicts with existing %s", e.Err, e.Path, rule, e.Target, *e.Existing)
	case errors.Is(e.Err, ErrUnresolvableReference):
		return fmt.Sprintf("%v: output path %q%s references unknown page %q", e.Err, e.Path, rule, e.Target.Page)
	case e.Reason != "":
		return fmt.Sprintf("%v %q%s: %s", e.Err, e.Path, rule, e.Reason)
	default:
		return fmt.Sprintf("%v %q%s", e.Err, e.Path, rule)
	}
}

func (e *PathError) Unwrap() error { return e.Err }
