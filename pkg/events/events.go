// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/mentorbook_backend/pkg/reqctx"
)

// Prefix is prepended to every subject.
const Prefix = "mentorbook."

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Nop drops every event. Used when NATS is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// NATS publishes JSON payloads on a core NATS connection.
type NATS struct {
	nc *nats.Conn
}

func NewNATS(nc *nats.Conn) *NATS {
	return &NATS{nc: nc}
}

func (p *NATS) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	msg := nats.NewMsg(Prefix + subject)
	msg.Data = data
	if id := reqctx.RequestIDFromContext(ctx); id != "" {
		msg.Header.Set("X-Request-ID", id)
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	slog.DebugContext(ctx, "event published", "subject", msg.Subject, "bytes", len(data))
	return nil
}
