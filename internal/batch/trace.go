package batch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("gradtape.batch")

// startBatchSpan opens the span covering one Evaluate call.
func startBatchSpan(ctx context.Context, points, chunks int, gradient bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "batch.Evaluate",
		trace.WithAttributes(
			attribute.Int("batch.points", points),
			attribute.Int("batch.chunks", chunks),
			attribute.Bool("batch.gradient", gradient),
		),
	)
}

// endBatchSpan records the outcome and ends span.
func endBatchSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
