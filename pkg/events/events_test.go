package events

import (
	"context"
	"testing"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), "appointment.created", map[string]string{"id": "x"}); err != nil {
		t.Errorf("Nop.Publish returned %v", err)
	}
}

func TestNATSRejectsUnmarshalablePayload(t *testing.T) {
	p := NewNATS(nil)
	if err := p.Publish(context.Background(), "appointment.created", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}
