package telemetry

type traceExporterType string

const (
	noneTraceExporterType     traceExporterType = "none"
	consoleTraceExporterType  traceExporterType = "console"
	otlpHTTPTraceExporterType traceExporterType = "otlpHttp"
	otlpGrpcTraceExporterType traceExporterType = "otlpGrpc"
	httpTraceExporterType     traceExporterType = "http"
)

type metricExporterType string

const (
	noneMetricExporterType     metricExporterType = "none"
	consoleMetricExporterType  metricExporterType = "console"
	otlpHTTPMetricExporterType metricExporterType = "otlpHttp"
	otlpGrpcMetricExporterType metricExporterType = "otlpGrpc"
)

// Options configures the trace and metric exporters. The zero value disables both.
type Options struct {
	// TraceExporter selects the span exporter: none, console, otlpHttp, otlpGrpc or http.
	TraceExporter string

	// TraceExporterHTTPEndpoint is the collector endpoint for the `http` trace exporter.
	TraceExporterHTTPEndpoint string

	// TraceExporterInsecureEndpoint allows plain-text connections to the collector.
	TraceExporterInsecureEndpoint bool

	// TraceParent carries a W3C traceparent value to continue an external trace.
	TraceParent string

	// MetricExporter selects the metric exporter: none, console, otlpHttp or otlpGrpc.
	MetricExporter string

	// MetricExporterInsecureEndpoint allows plain-text connections to the collector.
	MetricExporterInsecureEndpoint bool
}
