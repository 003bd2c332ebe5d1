package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments and warnings from the normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerations and list fields before defaults
// are applied. It mutates c in place.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	c.Version = strings.TrimSpace(c.Version)
	normalizeExtensions(&c.Pages, res)
	normalizeRoutes(c.Routes, res)
	normalizeLogging(&c.Monitoring.Logging, res)
	normalizeRetry(&c.Notify.Retry, res)
	return res, nil
}

func normalizeExtensions(p *PagesConfig, res *NormalizationResult) {
	for i, ext := range p.Extensions {
		canon := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if canon != ext {
			res.Warnings = append(res.Warnings, warnChanged(fmt.Sprintf("pages.extensions[%d]", i), ext, canon))
			p.Extensions[i] = canon
		}
	}
}

func normalizeRoutes(routes []RouteConfig, res *NormalizationResult) {
	for i := range routes {
		r := &routes[i]
		field := fmt.Sprintf("routes[%d].type", i)
		// Unknown types are left for validation to reject.
		if t := NormalizeRouteType(string(r.Type)); t != "" && t != r.Type {
			res.Warnings = append(res.Warnings, warnChanged(field, r.Type, t))
			r.Type = t
		}
		r.Name = strings.TrimSpace(r.Name)
		r.Param = strings.TrimSpace(r.Param)
	}
}

func normalizeLogging(l *MonitoringLogging, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if string(l.Level) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}
	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", l.Format, f))
			l.Format = f
		}
	} else if string(l.Format) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	}
}

func normalizeRetry(r *RetryConfig, res *NormalizationResult) {
	if m := NormalizeRetryBackoffMode(string(r.Backoff)); m != "" && m != r.Backoff {
		res.Warnings = append(res.Warnings, warnChanged("notify.retry.backoff", r.Backoff, m))
		r.Backoff = m
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
