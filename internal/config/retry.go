package config

import (
	"time"

	"git.home.luguber.info/inful/exportmap/internal/foundation/normalization"
)

// RetryBackoffMode selects how retry delays grow.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoffMode returns the canonical mode, or "" if unknown.
func NormalizeRetryBackoffMode(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// RetryConfig controls retries of notification publishing.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"`
	Initial    string           `yaml:"initial,omitempty"`
	Max        string           `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// InitialDuration parses Initial; zero when unset.
func (r RetryConfig) InitialDuration() time.Duration { return parseOptionalDuration(r.Initial) }

// MaxDuration parses Max; zero when unset.
func (r RetryConfig) MaxDuration() time.Duration { return parseOptionalDuration(r.Max) }

func parseOptionalDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
