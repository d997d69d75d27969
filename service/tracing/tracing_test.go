package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func resetProvider(t *testing.T) {
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
	})
}

func TestInitOffKeepsSpansUnrecorded(t *testing.T) {
	resetProvider(t)
	otel.SetTracerProvider(noop.NewTracerProvider())

	shutdown, err := Init("off", &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.IsRecording())
}

func TestInitStdoutExportsSpans(t *testing.T) {
	resetProvider(t)

	var buf bytes.Buffer
	shutdown, err := Init("stdout", &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "advisor.advise")
	assert.True(t, span.IsRecording())
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"advisor.advise"`)
	assert.Contains(t, buf.String(), "ecovision")
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	resetProvider(t)

	_, err := Init("zipkin", &bytes.Buffer{})
	assert.Error(t, err)
}
