// Package tracing sets up OpenTelemetry for task monitors. Spans are always
// recorded; they are exported to Jaeger only when enabled.
package tracing

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultServiceName is recorded on every span when Options leaves it empty.
	DefaultServiceName = "task-monitor"

	tracerName      = "github.com/konveyor/task-monitor"
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	EnableJaeger   bool
	JaegerEndpoint string
	ServiceName    string
}

func newJaegerExporter(endpoint string) (tracesdk.SpanExporter, error) {
	exp, err := jaeger.New(
		jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)),
	)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// InitTracerProvider creates a tracer provider and installs it globally.
func InitTracerProvider(log logr.Logger, o Options) (*tracesdk.TracerProvider, error) {
	serviceName := o.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	tracerOptions := []tracesdk.TracerProviderOption{
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	}
	if o.EnableJaeger {
		exp, err := newJaegerExporter(o.JaegerEndpoint)
		if err != nil {
			log.Error(err, "failed to create jaeger exporter", "endpoint", o.JaegerEndpoint)
			return nil, err
		}
		tracerOptions = append(tracerOptions, tracesdk.WithBatcher(exp))
		log.V(3).Info("exporting traces to jaeger", "endpoint", o.JaegerEndpoint)
	}

	tp := tracesdk.NewTracerProvider(tracerOptions...)
	otel.SetTracerProvider(tp)

	return tp, nil
}

// Shutdown flushes pending spans, giving up after a few seconds.
func Shutdown(ctx context.Context, log logr.Logger, tp *tracesdk.TracerProvider) {
	if tp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Error(err, "error shutting down tracer provider")
	}
}

// StartNewSpan starts a span from the global tracer provider. Without a
// provider installed the span is a no-op.
func StartNewSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}
