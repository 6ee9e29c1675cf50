package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRunSpanParentsStepSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, orphan := startStepSpan(context.Background(), "orphan")
	orphan.End()

	ctx, run := startRunSpan(context.Background(), "run")
	_, step := startStepSpan(ctx, "step")
	step.End()
	run.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "step", ended[0].Name())
	assert.Equal(t, "run", ended[1].Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}
