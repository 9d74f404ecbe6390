package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, string, any) error {
	f.calls++
	return errors.New("nats down")
}

func TestCountingPublisherPassesThrough(t *testing.T) {
	next := &failingPublisher{}
	p, err := NewCountingPublisher(next)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Publish(context.Background(), "appointment.created", nil); err == nil {
		t.Error("expected wrapped error")
	}
	if next.calls != 1 {
		t.Errorf("calls = %d, want 1", next.calls)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fiber.ErrUnauthorized, 401},
		{apperr.Conflict("MENTOR_BUSY", "busy"), 409},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFiberMiddlewareSkipsPaths(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware("/metrics"))
	app.Get("/metrics", func(c fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/ping", func(c fiber.Ctx) error { return c.SendString("pong") })

	for _, path := range []string{"/metrics", "/api/ping"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("%s: status %d", path, resp.StatusCode)
		}
	}
}
