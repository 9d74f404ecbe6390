package observability

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/mentorbook_backend/pkg/reqctx"
)

const (
	tracerName    = "github.com/Alijeyrad/mentorbook_backend/pkg/observability"
	HeaderTraceID = "X-Trace-Id"
)

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(m metric.Meter) httpMetrics {
	requests, _ := m.Int64Counter("http_server_request_count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"))
	duration, _ := m.Float64Histogram("http_server_request_duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"))
	return httpMetrics{requests: requests, duration: duration}
}

// FiberMiddleware opens a server span per request and records request
// count and latency by route. Paths in skip (probes, /metrics) pass through.
// The span is annotated with the acting user and the appointment or mentor
// the route addresses.
func FiberMiddleware(skip ...string) fiber.Handler {
	tracer := otel.Tracer(tracerName)
	hm := newHTTPMetrics(otel.Meter(tracerName))

	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c fiber.Ctx) error {
		if _, ok := skipped[c.Path()]; ok {
			return c.Next()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Context(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Route().Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.url", string(c.Request().URI().FullURI())),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		c.SetContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Set(HeaderTraceID, sc.TraceID().String())
		}

		start := time.Now()
		err := c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000

		// The error handler runs after this middleware returns.
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}

		// Route is resolved only after routing, so read it again.
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(domainAttributes(c)...)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)

		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		hm.requests.Add(ctx, 1, attrs)
		hm.duration.Record(ctx, elapsed, attrs)

		switch {
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
			if err != nil {
				span.RecordError(err)
			}
		default:
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}

func domainAttributes(c fiber.Ctx) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	ctx := c.Context()
	if rid := reqctx.RequestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, attribute.String("request.id", rid))
	}
	if claims := reqctx.ClaimsFromContext(ctx); claims != nil {
		attrs = append(attrs,
			attribute.String("enduser.id", claims.GetUserID().String()),
			attribute.String("enduser.role", claims.GetRole()),
		)
	}
	if id := c.Params("id"); id != "" {
		attrs = append(attrs, attribute.String("mentorbook.appointment_id", id))
	}
	if id := c.Params("mentorId"); id != "" {
		attrs = append(attrs, attribute.String("mentorbook.mentor_id", id))
	}
	return attrs
}

// statusOf mirrors the HTTP error handler: errors that know their status
// report it, everything else is a 500.
func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var se interface{ Status() int }
	if errors.As(err, &se) {
		return se.Status()
	}
	return fiber.StatusInternalServerError
}
