package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLoadRecordsSpanPerSource(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	store := NewStore(mapFetcher(map[string]string{
		"posts.json": `[{"title":"One"},{"title":"Two"}]`,
	}), WithTracer(provider.Tracer("test")))

	_, err := store.Load(context.Background(), []Source{
		{Name: "posts", Path: "posts.json", Type: TypePost},
		{Name: "daily", Path: "missing.json", Type: TypeDaily},
	})
	require.NoError(t, err)

	status := map[string]codes.Code{}
	var root sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "content.Load":
			root = span
		case "content.LoadSource":
			for _, kv := range span.Attributes() {
				if kv.Key == "source.name" {
					status[kv.Value.AsString()] = span.Status().Code
				}
			}
		}
	}
	require.NotNil(t, root)
	require.Equal(t, map[string]codes.Code{"posts": codes.Unset, "daily": codes.Error}, status)
	for _, span := range recorder.Ended() {
		if span.Name() == "content.LoadSource" {
			require.Equal(t, root.SpanContext().SpanID(), span.Parent().SpanID())
		}
	}
}
