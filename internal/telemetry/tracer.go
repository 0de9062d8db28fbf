package telemetry

import (
	"context"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/treeline-io/treeline/internal/errors"
)

const traceParentParts = 4

// Tracer collects traces of method execution.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer

	parentTraceID    *trace.TraceID
	parentSpanID     *trace.SpanID
	parentTraceFlags *trace.TraceFlags
}

// NewTracer creates a new Tracer with the exporter selected by the given options.
// A nil Tracer is returned when tracing is disabled.
func NewTracer(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Tracer, error) {
	exp, err := newTraceExporter(ctx, writer, opts)
	if err != nil {
		return nil, err
	}

	if exp == nil { // no exporter
		return nil, nil
	}

	provider, err := newTraceProvider(appName, appVersion, exp)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(provider)

	tracer := &Tracer{
		provider: provider,
		tracer:   provider.Tracer(appName),
	}

	if err := tracer.parseTraceParent(opts.TraceParent); err != nil {
		return nil, err
	}

	return tracer, nil
}

// Trace collects traces for method execution.
func (t *Tracer) Trace(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if t == nil || t.provider == nil { // invoke function without tracing
		return fn(ctx)
	}

	ctx, span := t.openSpan(ctx, name, attrs)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// parseTraceParent parses a W3C traceparent value so spans continue an external trace.
func (t *Tracer) parseTraceParent(traceParent string) error {
	if traceParent == "" {
		return nil
	}

	parts := strings.Split(traceParent, "-")
	if len(parts) != traceParentParts {
		return errors.Errorf("invalid traceparent value %q", traceParent)
	}

	traceIDHex, spanIDHex, flagsHex := parts[1], parts[2], parts[3]

	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if err != nil {
		return errors.New(err)
	}

	spanID, err := trace.SpanIDFromHex(spanIDHex)
	if err != nil {
		return errors.New(err)
	}

	traceFlags := trace.TraceFlags(0)
	if flagsHex != "00" {
		traceFlags = trace.FlagsSampled
	}

	t.parentTraceID = &traceID
	t.parentSpanID = &spanID
	t.parentTraceFlags = &traceFlags

	return nil
}

// openSpan creates a new span with attributes.
func (t *Tracer) openSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, trace.Span) {
	if t.parentTraceID != nil && t.parentSpanID != nil {
		spanContext := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    *t.parentTraceID,
			SpanID:     *t.parentSpanID,
			Remote:     true,
			TraceFlags: *t.parentTraceFlags,
		})

		ctx = trace.ContextWithSpanContext(ctx, spanContext)
	}

	ctx, span := t.tracer.Start(ctx, name) //nolint:spancheck
	span.SetAttributes(mapToAttributes(attrs)...)

	return ctx, span //nolint:spancheck
}

// newTraceProvider creates a new trace provider with the app version.
func newTraceProvider(appName, appVersion string, exp sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.ServiceVersion(appVersion),
		),
	)
	if err != nil {
		return nil, errors.New(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	), nil
}

// newTraceExporter creates a new exporter based on the telemetry options.
func newTraceExporter(ctx context.Context, writer io.Writer, opts *Options) (sdktrace.SpanExporter, error) {
	exporterType := traceExporterType(opts.TraceExporter)
	if exporterType == "" {
		exporterType = noneTraceExporterType
	}

	switch exporterType { //nolint:exhaustive
	case httpTraceExporterType:
		if opts.TraceExporterHTTPEndpoint == "" {
			return nil, errors.Errorf("the http trace exporter requires an endpoint")
		}

		config := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.TraceExporterHTTPEndpoint)}

		if opts.TraceExporterInsecureEndpoint {
			config = append(config, otlptracehttp.WithInsecure())
		}

		return otlptracehttp.New(ctx, config...)
	case otlpHTTPTraceExporterType:
		var config []otlptracehttp.Option
		if opts.TraceExporterInsecureEndpoint {
			config = append(config, otlptracehttp.WithInsecure())
		}

		return otlptracehttp.New(ctx, config...)
	case otlpGrpcTraceExporterType:
		var config []otlptracegrpc.Option
		if opts.TraceExporterInsecureEndpoint {
			config = append(config, otlptracegrpc.WithInsecure())
		}

		return otlptracegrpc.New(ctx, config...)
	case consoleTraceExporterType:
		return stdouttrace.New(stdouttrace.WithWriter(writer))
	default:
		return nil, nil
	}
}
