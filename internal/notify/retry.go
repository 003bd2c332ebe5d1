package notify

import (
	"context"

	"git.home.luguber.info/inful/exportmap/internal/retry"
)

// Retrying retries failed publishes according to a backoff policy.
type Retrying struct {
	Notifier
	policy retry.Policy
}

// WithRetry wraps n so Exported is retried under p.
func WithRetry(n Notifier, p retry.Policy) *Retrying {
	return &Retrying{Notifier: n, policy: p}
}

func (r *Retrying) Exported(ctx context.Context, e Event) error {
	return r.policy.Do(ctx, func(ctx context.Context) error {
		return r.Notifier.Exported(ctx, e)
	})
}
