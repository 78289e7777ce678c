package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name used for all podforge spans.
const tracerName = "github.com/podforge/podforge"

// StartStage starts a span for a pipeline stage. The returned end function
// must be called when the stage completes; pass the stage's error (or nil)
// so the span status reflects the outcome.
func StartStage(ctx context.Context, stage string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline."+stage,
		trace.WithAttributes(attribute.String("podforge.stage", stage)),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}
