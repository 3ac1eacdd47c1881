package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "ecomdash-backend/pipeline"

// Span attribute keys
var (
	SpanSource = attribute.Key("dataset.source")
	SpanOrigin = attribute.Key("dataset.origin")
	SpanRows   = attribute.Key("dataset.rows")
	SpanBytes  = attribute.Key("dataset.bytes")
	SpanView   = attribute.Key("dashboard.view")
)

// StartSpan starts an internal span on the global tracer provider.
// The caller ends it, usually through EndSpan.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks span as failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// EndSpan records err, if any, and ends span
func EndSpan(span trace.Span, err error) {
	RecordError(span, err)
	span.End()
}
