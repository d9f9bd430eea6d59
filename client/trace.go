package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRequestIDHeader is the usual name to pass to [WithRequestIDHeader].
const DefaultRequestIDHeader = "X-Request-Id"

// startSpan opens the client span of a call.
func (c *Client) startSpan(ctx context.Context, method string, id uint64, shape string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "httpcall."+method, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.Int64("httpcall.id", int64(id)),
		attribute.String("httpcall.shape", shape),
	)

	return ctx, span
}

// stampTrace propagates the span on req and, when enabled, sets the
// correlation header.
func (c *Client) stampTrace(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.requestIDHeader == "" || req.Header.Get(c.requestIDHeader) != "" {
		return
	}

	traceID := trace.SpanContextFromContext(ctx).TraceID()
	if traceID.IsValid() {
		req.Header.Set(c.requestIDHeader, traceID.String())
		return
	}
	req.Header.Set(c.requestIDHeader, uuid.NewString())
}

func endSpan(span trace.Span, code int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", code))
		if code >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(code))
		}
	}
	span.End()
}
