// Package telemetry wires OpenTelemetry traces and metrics for the payout service.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// Config selects which signals are exported to the collector.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	CollectorEndpoint string // OTLP gRPC
	Insecure          bool

	TracingEnabled bool
	SamplingRatio  float64

	MetricsEnabled  bool
	MetricsInterval time.Duration // defaults to 60s
}

// Providers owns the SDK providers installed as process globals. A disabled
// signal leaves the global no-op provider in place.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
	logger *zap.Logger
}

// Setup installs the enabled providers and the W3C propagators.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{logger: logger}
	if !cfg.TracingEnabled && !cfg.MetricsEnabled {
		logger.Info("Telemetry disabled, using no-op providers")
		return p, nil
	}

	res, err := serviceResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	if cfg.TracingEnabled {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		p.tracer = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
		)
		otel.SetTracerProvider(p.tracer)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if cfg.MetricsEnabled {
		interval := cfg.MetricsInterval
		if interval == 0 {
			interval = 60 * time.Second
		}
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}
		p.meter = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		)
		otel.SetMeterProvider(p.meter)
	}

	logger.Info("OpenTelemetry initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Bool("tracing", cfg.TracingEnabled),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)
	return p, nil
}

// Meter returns a meter from the installed provider, or the global no-op one.
func (p *Providers) Meter(name string) metric.Meter {
	if p.meter == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return p.meter.Meter(name)
}

// Shutdown flushes pending spans and metrics within ctx.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

func serviceResource(name, version string) (*resource.Resource, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build service resource: %w", err)
	}
	return res, nil
}

// samplerFor maps a ratio onto a parent-based sampler so that sampling
// decisions follow incoming trace context.
func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
