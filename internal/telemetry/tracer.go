package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracerOnce sync.Once
	tracer     trace.Tracer
)

// InitTracing installs the global tracer provider. With tracing disabled
// the default no-op provider stays in place, so SDK spans cost nothing.
func InitTracing(cfg *Config) error {
	var err error
	tracerOnce.Do(func() {
		if !cfg.EnableTracing {
			tracer = otel.Tracer(cfg.ServiceName)
			return
		}

		ctx := context.Background()

		res, resErr := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(cfg.ServiceName),
				semconv.ServiceVersionKey.String(cfg.ServiceVersion),
				semconv.DeploymentEnvironmentKey.String(cfg.Environment),
			),
		)
		if resErr != nil {
			err = fmt.Errorf("failed to create resource: %w", resErr)
			return
		}

		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)

		exporter, exportErr := otlptrace.New(ctx, client)
		if exportErr != nil {
			err = fmt.Errorf("failed to create trace exporter: %w", exportErr)
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

		tracer = otel.Tracer(cfg.ServiceName)
	})

	return err
}

// Tracer returns the global tracer instance
func Tracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer("rush-analytics")
	}
	return tracer
}

// StartSpan starts a new span with the given name
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// SetErrorStatus sets the status of the current span to Error
func SetErrorStatus(ctx context.Context, description string) {
	trace.SpanFromContext(ctx).SetStatus(codes.Error, description)
}

// SetOKStatus sets the status of the current span to OK
func SetOKStatus(ctx context.Context) {
	trace.SpanFromContext(ctx).SetStatus(codes.Ok, "")
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	trace.SpanFromContext(ctx).RecordError(err, opts...)
}

// CloseTracing shuts down the tracer provider
func CloseTracing(ctx context.Context) error {
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		return tp.Shutdown(ctx)
	}
	return nil
}
