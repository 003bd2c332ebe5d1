// Package notify publishes export events for downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/exportmap/internal/logfields"
)

// Event describes a finished export.
type Event struct {
	RunID       string    `json:"run_id,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Routes      int       `json:"routes"`
	Written     int       `json:"written"`
	Skipped     int       `json:"skipped"`
	BrokenLinks int       `json:"broken_links"`
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	Changed     int       `json:"changed"`
	Output      string    `json:"output"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notifier publishes export events.
type Notifier interface {
	Exported(ctx context.Context, e Event) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Exported(context.Context, Event) error { return nil }
func (Noop) Close() error                          { return nil }

// NATS publishes events as JSON on a subject.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to the server at url.
func NewNATS(url, subject string, opts ...nats.Option) (*NATS, error) {
	opts = append([]nats.Option{nats.Name("exportmap"), nats.Timeout(5 * time.Second)}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier connected", slog.String("url", conn.ConnectedUrlRedacted()), slog.String("subject", subject))
	return &NATS{conn: conn, subject: subject}, nil
}

func (n *NATS) Exported(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	slog.Debug("Published export event", logfields.RunID(e.RunID), slog.String("subject", n.subject))
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}
