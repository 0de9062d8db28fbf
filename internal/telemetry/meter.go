package telemetry

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/treeline-io/treeline/internal/errors"
)

const metricExportInterval = time.Second

// Meter collects metrics of method execution.
type Meter struct {
	provider *sdkmetric.MeterProvider
	meter    otelmetric.Meter
}

// NewMeter creates a new Meter with the exporter selected by the given options.
// A nil Meter is returned when metrics are disabled.
func NewMeter(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Meter, error) {
	exp, err := newMetricExporter(ctx, writer, opts)
	if err != nil {
		return nil, err
	}

	if exp == nil { // no exporter
		return nil, nil
	}

	provider, err := newMeterProvider(appName, appVersion, exp)
	if err != nil {
		return nil, err
	}

	otel.SetMeterProvider(provider)

	return &Meter{
		provider: provider,
		meter:    provider.Meter(appName),
	}, nil
}

// Time collects the duration of the function execution along with success and error counts.
func (m *Meter) Time(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if m == nil || m.provider == nil { // invoke function without metrics
		return fn(ctx)
	}

	histogram, histErr := m.meter.Int64Histogram(CleanMetricName(name+"_duration"), otelmetric.WithUnit("ms"))

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if histErr == nil {
		histogram.Record(ctx, elapsed.Milliseconds(), otelmetric.WithAttributes(mapToAttributes(attrs)...))
	}

	if err != nil {
		m.Count(ctx, name+"_errors", 1)
	} else {
		m.Count(ctx, name+"_success", 1)
	}

	return err
}

// Count adds the given value to the named counter.
func (m *Meter) Count(ctx context.Context, name string, value int64) {
	if m == nil || m.provider == nil {
		return
	}

	counter, err := m.meter.Int64Counter(CleanMetricName(name))
	if err != nil {
		return
	}

	counter.Add(ctx, value)
}

// newMeterProvider creates a new metrics provider.
func newMeterProvider(appName, appVersion string, exp sdkmetric.Exporter) (*sdkmetric.MeterProvider, error) {
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

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(r),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(metricExportInterval))),
	), nil
}

// newMetricExporter creates a new exporter based on the telemetry options.
func newMetricExporter(ctx context.Context, writer io.Writer, opts *Options) (sdkmetric.Exporter, error) {
	exporterType := metricExporterType(opts.MetricExporter)
	if exporterType == "" {
		exporterType = noneMetricExporterType
	}

	switch exporterType { //nolint:exhaustive
	case otlpHTTPMetricExporterType:
		var config []otlpmetrichttp.Option
		if opts.MetricExporterInsecureEndpoint {
			config = append(config, otlpmetrichttp.WithInsecure())
		}

		return otlpmetrichttp.New(ctx, config...)
	case otlpGrpcMetricExporterType:
		var config []otlpmetricgrpc.Option
		if opts.MetricExporterInsecureEndpoint {
			config = append(config, otlpmetricgrpc.WithInsecure())
		}

		return otlpmetricgrpc.New(ctx, config...)
	case consoleMetricExporterType:
		return stdoutmetric.New(stdoutmetric.WithWriter(writer))
	default:
		return nil, nil
	}
}
