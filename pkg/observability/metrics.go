package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/mentorbook_backend/pkg/events"
)

// CountingPublisher counts lifecycle events per subject and outcome before
// handing them to the wrapped publisher.
type CountingPublisher struct {
	next    events.Publisher
	counter metric.Int64Counter
}

func NewCountingPublisher(next events.Publisher) (*CountingPublisher, error) {
	counter, err := otel.Meter(tracerName).Int64Counter(
		"mentorbook_appointment_events_total",
		metric.WithDescription("Appointment lifecycle events by subject and publish outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	return &CountingPublisher{next: next, counter: counter}, nil
}

func (p *CountingPublisher) Publish(ctx context.Context, subject string, payload any) error {
	err := p.next.Publish(ctx, subject, payload)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("subject", subject),
		attribute.String("outcome", outcome),
	))
	return err
}
