// Package observability wires OpenTelemetry tracing and metrics for the simulator.
package observability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider holds the simulator's tracer and meter. Both are the global no-op
// implementations when export is disabled, so callers never check for nil.
type Provider struct {
	Tracer         trace.Tracer
	Meter          metric.Meter
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider

	prefix        string
	shutdownFuncs []func(context.Context) error
}

// Init builds the provider. With export disabled it returns immediately without
// touching the network or the otel globals.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{
		Tracer: otel.Tracer(cfg.ServiceName),
		Meter:  otel.Meter(cfg.ServiceName),
		prefix: MetricPrefix(cfg.ServiceName),
	}
	if !cfg.Enabled() {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithAttributes(cfg.ResourceAttrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	if cfg.TracingEnabled {
		if err := p.exportTraces(ctx, cfg, res); err != nil {
			return nil, fmt.Errorf("export traces: %w", err)
		}
	}
	if cfg.MetricsEnabled {
		if err := p.exportMetrics(ctx, cfg, res); err != nil {
			return nil, errors.Join(fmt.Errorf("export metrics: %w", err), p.Shutdown(ctx))
		}
	}
	return p, nil
}

// Prefix is the metric name prefix derived from the service name.
func (p *Provider) Prefix() string {
	return p.prefix
}

// Rounds creates the per-round instrumentation for one conversation.
func (p *Provider) Rounds(conversationID string) (*RoundInstrumenter, error) {
	return NewRoundInstrumenter(p.Tracer, p.Meter, p.prefix, conversationID)
}

// Shutdown flushes and stops every exporter, reporting all failures.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range p.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdownFuncs = nil
	return errors.Join(errs...)
}

// MetricPrefix turns a service name into a metric name prefix.
func MetricPrefix(serviceName string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(strings.ToLower(serviceName))
}

// exportTraces batches round and request spans to the OTLP/HTTP collector.
func (p *Provider) exportTraces(ctx context.Context, cfg Config, res *resource.Resource) error {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithHeaders(cfg.OTLPHeaders),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.TraceBatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
	)
	p.TracerProvider = tp
	p.Tracer = tp.Tracer(cfg.ServiceName)
	p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

// exportMetrics pushes round and request instruments on a fixed interval.
func (p *Provider) exportMetrics(ctx context.Context, cfg Config, res *resource.Resource) error {
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetrichttp.WithHeaders(cfg.OTLPHeaders),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	p.MeterProvider = mp
	p.Meter = mp.Meter(cfg.ServiceName)
	p.shutdownFuncs = append(p.shutdownFuncs, mp.Shutdown)

	otel.SetMeterProvider(mp)
	return nil
}
