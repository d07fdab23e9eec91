package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSpans(t *testing.T) {
	newTestProvider(t)
	ctx := context.Background()

	spanCtx, span := StartSpan(ctx, "pipeline.run", attribute.String(SpanAttrRunID, "r1"))
	assert.NotNil(t, spanCtx)
	SetSpanSuccess(span)
	AddSpanEvent(span, "committed")
	span.End()

	spanCtx, span = StartToolSpan(ctx, "run_pipeline")
	assert.NotNil(t, spanCtx)
	SetSpanError(span, errors.New("boom"))
	SetSpanError(span, nil)
	span.End()

	spanCtx, span = StartGoogleAPISpan(ctx, ServiceSheets, OperationAppend)
	assert.NotNil(t, spanCtx)
	span.End()
}

func TestTraceIDs_NoSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}
