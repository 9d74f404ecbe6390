package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/appointment"
	"github.com/Alijeyrad/mentorbook_backend/pkg/events"
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

const auditSubject = events.Prefix + "appointment.>"

type WorkerParams struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg *config.Config
	NC  *nats.Conn `optional:"true"`
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil || !p.Cfg.Nats.Audit {
		return
	}

	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			sub, err = p.NC.QueueSubscribe(auditSubject, "mentorbook-audit", func(msg *nats.Msg) {
				handleAuditMessage(slog.Default(), msg)
			})
			if err != nil {
				slog.Error("audit_worker: subscribe failed", "subject", auditSubject, "err", err)
				return err
			}
			slog.Info("audit_worker: subscribed", "subject", auditSubject)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// connection drain is handled by ProvideNatsClient
			if sub != nil {
				return sub.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// audit_worker
// ---------------------------------------------------------------------------

// handleAuditMessage writes one structured audit line per lifecycle event.
func handleAuditMessage(log *slog.Logger, msg *nats.Msg) {
	var ev appointment.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		log.Warn("audit_worker: undecodable event", "subject", msg.Subject, "err", err)
		return
	}

	attrs := []any{
		"event", strings.TrimPrefix(msg.Subject, events.Prefix),
		"appointment_id", ev.AppointmentID,
		"status", ev.Status,
		"actor_id", ev.ActorID,
		"actor_role", ev.ActorRole,
		"mentor_id", ev.MentorID,
		"student_id", ev.StudentID,
		"starts_at", ev.StartsAt,
	}
	if msg.Header != nil {
		if rid := msg.Header.Get("X-Request-ID"); rid != "" {
			attrs = append(attrs, "request_id", rid)
		}
	}
	log.Info("appointment audit", attrs...)
}
