package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/adocs/internal/config"
	"git.home.luguber.info/inful/adocs/internal/logfields"
)

// NATSNotifier publishes run events on a subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to the configured server.
func NewNATSNotifier(cfg *config.EventsConfig) (*NATSNotifier, error) {
	if cfg == nil || strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("events url is required")
	}
	if strings.TrimSpace(cfg.Subject) == "" {
		return nil, errors.New("events subject is required")
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("adocs"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier connected", "url", cfg.URL, "subject", cfg.Subject)
	return &NATSNotifier{conn: conn, subject: cfg.Subject}, nil
}

// Notify publishes ev and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, ev RunEvent) error {
	data, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	// FlushWithContext requires a deadline.
	fctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.conn.FlushWithContext(fctx); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	slog.Debug("Published run event", logfields.RunID(ev.RunID), "subject", n.subject)
	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
