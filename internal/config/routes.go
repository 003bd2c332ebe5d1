package config

import "git.home.luguber.info/inful/exportmap/internal/foundation/normalization"

// RouteType selects the rule a RouteConfig builds.
type RouteType string

const (
	// RouteContent maps every content entry to prefix/<slug>.
	RouteContent RouteType = "content"
	// RoutePaginate adds listing pages prefix/2..N.
	RoutePaginate RouteType = "paginate"
	// RouteStatic adds one fixed entry.
	RouteStatic RouteType = "static"
	// RouteExclude removes default entries.
	RouteExclude RouteType = "exclude"
)

var routeTypeNormalizer = normalization.NewNormalizer(map[string]RouteType{
	"content":  RouteContent,
	"paginate": RoutePaginate,
	"static":   RouteStatic,
	"exclude":  RouteExclude,
}, "")

// NormalizeRouteType returns the canonical route type, or "" if unknown.
func NormalizeRouteType(raw string) RouteType {
	return routeTypeNormalizer.Normalize(raw)
}

// RouteTypes lists the accepted route type names.
func RouteTypes() []string { return routeTypeNormalizer.ValidKeys() }
