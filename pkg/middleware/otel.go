package middleware

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

// Default tracer name for breadcrumbs trackers.
const defaultTracerName = "crumbs"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "crumbs").
	TracerName string

	// TracerProvider supplies the tracer. Default: the global provider.
	TracerProvider trace.TracerProvider

	// Attributes are added to every pass span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithAttributes adds constant attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

type otelObserver struct {
	config OTelConfig
}

// OpenTelemetry creates an Observer that traces every pass.
//
// The observer:
//   - Starts a span named "crumbs.pass" when a pass starts
//   - Hands the span context to data sources
//   - Records the pass counters as span attributes once the delta is built
//   - Records errors and ends the span when the pass settles
//
// Without WithTracerProvider the tracer comes from the global provider.
// Configure it in main() before creating trackers:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) breadcrumbs.Observer {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	config.tracer = tp.Tracer(config.TracerName)

	return otelObserver{config: config}
}

func (o otelObserver) PassStarted(ctx context.Context, pass uint64, matches int) context.Context {
	attrs := append([]attribute.KeyValue{
		attribute.String("crumbs.pass", strconv.FormatUint(pass, 10)),
		attribute.Int("crumbs.matches", matches),
	}, o.config.Attributes...)

	ctx, _ = o.config.tracer.Start(ctx, "crumbs.pass",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx
}

func (o otelObserver) PassBuilt(ctx context.Context, ev breadcrumbs.PassEvent) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("crumbs.considered", ev.Considered),
		attribute.Int("crumbs.reused", ev.Reused),
		attribute.Int("crumbs.computed", ev.Computed),
		attribute.Int("crumbs.awaiting", ev.Awaiting),
		attribute.Int("crumbs.evicted", ev.Evicted),
		attribute.Bool("crumbs.pending", ev.Pending),
	)
}

func (o otelObserver) PassSettled(ctx context.Context, ev breadcrumbs.SettleEvent) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("crumbs.committed", ev.Crumbs),
		attribute.Bool("crumbs.superseded", ev.Superseded),
	)
	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// SpanFromContext returns the pass span a data source runs under. It
// returns nil when ctx carries no valid span.
func SpanFromContext(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}
