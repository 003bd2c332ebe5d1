// Package pathmap builds the route table consumed by static export.
//
// A Table maps every public output path ("/", "/posts/a") to a RenderTarget:
// the page identifier that renders it plus the named parameters for that
// instance. Page discovery produces the default table; Resolve runs the
// configured rules over it and returns the resolved table the exporter
// writes out.
//
// Resolution is a pure function of its inputs. Rules read content through
// SlugSource, which is treated as a read-only query. Two failures abort
// resolution: a generated entry that names a page the site does not have
// (ErrUnresolvableReference) and a generated entry that lands on an existing
// output path with a different target (ErrDuplicatePath). Rules may opt into
// replacing existing entries; nothing is overwritten silently.
package pathmap
