package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/appointment"
)

func TestHandleAuditMessage(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	id := uuid.New()
	data, err := json.Marshal(appointment.Event{AppointmentID: id, Status: repo.StatusConfirmed, ActorRole: "MENTOR"})
	if err != nil {
		t.Fatal(err)
	}

	msg := nats.NewMsg("mentorbook.appointment.confirmed")
	msg.Data = data
	msg.Header.Set("X-Request-ID", "req-1")

	handleAuditMessage(log, msg)

	out := buf.String()
	for _, want := range []string{`"event":"appointment.confirmed"`, id.String(), `"request_id":"req-1"`, `"status":"CONFIRMED"`} {
		if !strings.Contains(out, want) {
			t.Errorf("audit line %s missing %s", out, want)
		}
	}
}

func TestHandleAuditMessageIgnoresGarbage(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	handleAuditMessage(log, &nats.Msg{Subject: "mentorbook.appointment.created", Data: []byte("{")})

	if !strings.Contains(buf.String(), "undecodable event") {
		t.Errorf("expected warning, got %s", buf.String())
	}
}
