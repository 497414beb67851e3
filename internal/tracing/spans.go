package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for backend request spans.
const (
	AttrHTTPMethod  = "http.method"
	AttrHTTPPath    = "http.path"
	AttrHTTPStatus  = "http.status_code"
	AttrRequestID   = "portal.request_id"
	AttrAccount     = "portal.account"
	AttrResultType  = "portal.result_type"
	AttrPage        = "portal.page"
	AttrErrorReason = "error.message"
)

// SpanPrefix is prepended to every backend operation name.
const SpanPrefix = "portal."

// StartRequest opens a client span named portal.<op>.
func StartRequest(ctx context.Context, tracer trace.Tracer, op, method, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanPrefix+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrHTTPMethod, method),
			attribute.String(AttrHTTPPath, path),
		),
	)
}

// EndRequest records the outcome and ends the span.
func EndRequest(span trace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int(AttrHTTPStatus, status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorReason, err.Error()))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
