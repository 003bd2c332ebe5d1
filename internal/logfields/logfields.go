package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath        = "path"
	KeyPage        = "page"
	KeyParams      = "params"
	KeyRule        = "rule"
	KeySource      = "source"
	KeyFile        = "file"
	KeyStage       = "stage"
	KeyCount       = "count"
	KeyRunID       = "run_id"
	KeyFingerprint = "fingerprint"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Page(id string) slog.Attr        { return slog.String(KeyPage, id) }
func Rule(name string) slog.Attr      { return slog.String(KeyRule, name) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Fingerprint(fp string) slog.Attr { return slog.String(KeyFingerprint, fp) }

// Params renders a parameter map as a group so handlers print params.slug=a.
func Params(params map[string]string) slog.Attr {
	attrs := make([]any, 0, len(params))
	for k, v := range params {
		attrs = append(attrs, slog.String(k, v))
	}
	return slog.Group(KeyParams, attrs...)
}

// Duration reports d in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
