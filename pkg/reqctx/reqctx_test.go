package reqctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeClaims struct {
	id      uuid.UUID
	expired bool
}

func (f fakeClaims) GetUserID() uuid.UUID     { return f.id }
func (f fakeClaims) GetRole() string          { return "STUDENT" }
func (f fakeClaims) GetSessionID() *uuid.UUID { return nil }
func (f fakeClaims) IsExpired() bool          { return f.expired }

func TestClaimsFromContext(t *testing.T) {
	if ClaimsFromContext(context.Background()) != nil {
		t.Fatal("empty context must carry no claims")
	}

	id := uuid.New()
	c := ClaimsFromContext(WithClaims(context.Background(), fakeClaims{id: id}))
	if c == nil || c.GetUserID() != id {
		t.Errorf("ClaimsFromContext = %v", c)
	}

	if ClaimsFromContext(WithClaims(context.Background(), fakeClaims{id: id, expired: true})) != nil {
		t.Error("expired claims must be dropped")
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-1"})
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q", got)
	}
}

func TestLogAttrs(t *testing.T) {
	if attrs := LogAttrs(context.Background()); len(attrs) != 0 {
		t.Errorf("expected no attrs, got %v", attrs)
	}

	id := uuid.New()
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-9"})
	ctx = WithClaims(ctx, fakeClaims{id: id})

	got := map[string]string{}
	for _, a := range LogAttrs(ctx) {
		got[a.Key] = a.Value.String()
	}
	want := map[string]string{"request_id": "req-9", "actor_id": id.String(), "actor_role": "STUDENT"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}
