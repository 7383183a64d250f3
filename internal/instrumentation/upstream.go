package instrumentation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// UpstreamCall is an in-flight call to a third-party API, traced and measured.
type UpstreamCall struct {
	ctx       context.Context
	span      trace.Span
	metrics   *Metrics
	service   string
	operation string
	start     time.Time
}

// StartUpstreamCall opens a client span for service.operation. Finish it with
// End. m may be nil.
func StartUpstreamCall(ctx context.Context, m *Metrics, service, operation string) (context.Context, *UpstreamCall) {
	ctx, span := StartUpstreamSpan(ctx, service, operation)
	return ctx, &UpstreamCall{
		ctx:       ctx,
		span:      span,
		metrics:   m,
		service:   service,
		operation: operation,
		start:     time.Now(),
	}
}

// End records the outcome and returns err unchanged.
func (c *UpstreamCall) End(err error) error {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	c.metrics.RecordUpstreamCall(c.ctx, c.service, c.operation, status, time.Since(c.start))
	EndSpan(c.span, err)
	return err
}
