package site

import (
	"maps"

	"git.home.luguber.info/inful/exportmap/internal/config"
	"git.home.luguber.info/inful/exportmap/internal/content"
	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
	"git.home.luguber.info/inful/exportmap/internal/render"
)

// RulesFromConfig builds the rule list from cfg.Routes in configured order.
// sources maps route names to loaded content; a content or paginate route
// with no entry gets an empty source.
func RulesFromConfig(cfg *config.Config, sources map[string]*content.Index) ([]pathmap.Rule, error) {
	rules := make([]pathmap.Rule, 0, len(cfg.Routes))
	for i, rc := range cfg.Routes {
		name := rc.RouteName(i)
		policy := pathmap.Reject
		if rc.Override {
			policy = pathmap.Replace
		}
		switch rc.Type {
		case config.RouteContent:
			rules = append(rules, pathmap.ContentRule{
				RuleName: name,
				Prefix:   rc.Prefix,
				Page:     rc.Page,
				Param:    rc.Param,
				Source:   slugSource(sources[name]),
				Policy:   policy,
			})
		case config.RoutePaginate:
			rules = append(rules, pathmap.PaginateRule{
				RuleName: name,
				Prefix:   rc.Prefix,
				Page:     rc.Page,
				Param:    rc.Param,
				PerPage:  rc.PerPage,
				Source:   slugSource(sources[name]),
			})
		case config.RouteStatic:
			rules = append(rules, pathmap.StaticRule{
				RuleName: name,
				Path:     rc.Path,
				Target:   pathmap.Target(rc.Page, pathmap.Params(maps.Clone(rc.Params))),
				Policy:   policy,
			})
		case config.RouteExclude:
			rules = append(rules, pathmap.ExcludeRule{RuleName: name, Paths: rc.Paths})
		default:
			return nil, ferrors.ConfigError("unknown route type").
				WithContext("field", "routes").
				WithContext("rule", name).
				WithContext("type", string(rc.Type)).
				Build()
		}
	}
	return rules, nil
}

// slugSource keeps a nil index from becoming a non-nil interface.
func slugSource(idx *content.Index) pathmap.SlugSource {
	if idx == nil {
		return nil
	}
	return idx
}

// bindingsFromConfig tells the renderer which content each page displays.
// Listing items link to the prefix of the content route reading the same
// source directory.
func bindingsFromConfig(cfg *config.Config, sources map[string]*content.Index) render.Bindings {
	var b render.Bindings
	entryPrefix := map[string]string{}
	for i, rc := range cfg.Routes {
		if rc.Type != config.RouteContent {
			continue
		}
		if _, ok := entryPrefix[rc.Source]; !ok {
			entryPrefix[rc.Source] = rc.Prefix
		}
		b.Content = append(b.Content, render.ContentBinding{
			Page:   rc.Page,
			Param:  rc.Param,
			Prefix: rc.Prefix,
			Index:  sources[rc.RouteName(i)],
		})
	}
	for i, rc := range cfg.Routes {
		if rc.Type != config.RoutePaginate {
			continue
		}
		b.Listings = append(b.Listings, render.ListingBinding{
			Page:        rc.Page,
			Param:       rc.Param,
			Prefix:      rc.Prefix,
			PerPage:     rc.PerPage,
			Index:       sources[rc.RouteName(i)],
			EntryPrefix: entryPrefix[rc.Source],
		})
	}
	return b
}
