package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOllamaAdvise(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Yes! Make a planter."},
			Done:    true,
		})
	}))
	defer srv.Close()

	svc := NewOllamaWithClient(srv.URL+"/", "tiny", srv.Client())
	text, err := svc.Advise(context.Background(), "bottle")
	require.NoError(t, err)

	assert.Equal(t, "Yes! Make a planter.", text)
	assert.Equal(t, "tiny", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "'bottle'")
	assert.Contains(t, got.Messages[0].Content, "Is it recyclable?")
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(chatResponse{Error: "model 'tiny' not found"})
	}))
	defer srv.Close()

	_, err := NewOllamaWithClient(srv.URL, "tiny", srv.Client()).Advise(context.Background(), "can")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "model 'tiny' is pulled")
}

func TestOllamaTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, err := NewOllamaWithClient(srv.URL, "tiny", client).Advise(context.Background(), "cup")
	assert.Error(t, err)
}

func recordedOllama(t *testing.T, baseURL string, client HTTPClient) (IService, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := NewOllamaWithClient(baseURL, "tiny", client)
	svc.(*ollamaService).tracer = tp.Tracer(tracerName)
	return svc, recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestOllamaRecordsAdviseSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Yes!"},
			Done:    true,
		})
	}))
	defer srv.Close()

	svc, recorder := recordedOllama(t, srv.URL, srv.Client())
	_, err := svc.Advise(context.Background(), "bottle")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "advisor.advise", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "tiny", attrs["advisor.model"].AsString())
	assert.Equal(t, "bottle", attrs["advisor.subject"].AsString())
	assert.Equal(t, int64(4), attrs["advisor.response_length"].AsInt64())
}

func TestOllamaMarksFailedSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, recorder := recordedOllama(t, srv.URL, srv.Client())
	_, err := svc.Advise(context.Background(), "battery")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "battery", spanAttrs(spans[0])["advisor.subject"].AsString())
	assert.NotEmpty(t, spans[0].Events())
}
