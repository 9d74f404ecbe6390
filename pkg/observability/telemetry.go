package observability

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

const shutdownGrace = 5 * time.Second

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Spans are exported over OTLP/HTTP only when Tracing is set and an
	// endpoint is configured; otherwise they are sampled and dropped.
	Tracing      bool
	OTLPEndpoint string
	OTLPInsecure bool
	SamplingRate float64
}

func FromCentralConfig(c config.ObservabilityConfig, environment string) Config {
	return Config{
		ServiceName:    cmp.Or(c.ServiceName, "mentorbook"),
		ServiceVersion: cmp.Or(c.ServiceVersion, "dev"),
		Environment:    environment,
		Tracing:        c.Tracing.Enabled,
		OTLPEndpoint:   c.Tracing.OTLPEndpoint,
		OTLPInsecure:   c.Tracing.OTLPInsecure,
		SamplingRate:   c.Tracing.SamplingRate,
	}
}

// Provider owns the process-wide tracer and meter providers.
type Provider struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// InitTelemetry installs global tracer/meter providers and the W3C
// propagator. Meters are exported through the Prometheus registry served by
// MetricsHandler.
func InitTelemetry(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	tp, err := newTracerProvider(ctx, res, cfg)
	if err != nil {
		return nil, err
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(promExporter))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{TracerProvider: tp, MeterProvider: mp}, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, cfg Config) (*trace.TracerProvider, error) {
	rate := cfg.SamplingRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(rate))),
	}

	if cfg.Tracing && cfg.OTLPEndpoint != "" {
		eopts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			eopts = append(eopts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, eopts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(opts...), nil
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}
