package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

const (
	telemeterContextKey ctxKey = iota
)

type ctxKey byte

func ContextWithTelemeter(ctx context.Context, tlm *Telemeter) context.Context {
	return context.WithValue(ctx, telemeterContextKey, tlm)
}

func TelemeterFromContext(ctx context.Context) *Telemeter {
	if val := ctx.Value(telemeterContextKey); val != nil {
		if val, ok := val.(*Telemeter); ok {
			return val
		}
	}

	return new(Telemeter)
}

// Count adds the given value to the named counter of the context telemeter, if any.
func Count(ctx context.Context, name string, value int64) {
	if tlm := TelemeterFromContext(ctx); tlm != nil {
		tlm.Meter.Count(ctx, name, value)
	}
}

// TraceParentFromContext returns the W3C traceparent value of the span in the context,
// or an empty string if the context carries no valid span.
func TraceParentFromContext(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	spanContext := span.SpanContext()

	if !spanContext.IsValid() {
		return ""
	}

	flags := "00"
	if spanContext.TraceFlags().IsSampled() {
		flags = "01"
	}

	return "00-" + spanContext.TraceID().String() + "-" + spanContext.SpanID().String() + "-" + flags
}
