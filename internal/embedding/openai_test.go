package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, testLogger())
	require.NoError(t, err)
	return provider
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{}, testLogger())
	require.Error(t, err)
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	provider, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key"}, testLogger())
	require.NoError(t, err)
	require.Equal(t, "text-embedding-3-small", provider.cfg.EmbedModel)
	require.Equal(t, "gpt-4o-mini", provider.cfg.VisionModel)
	require.Equal(t, "https://api.openai.com/v1", provider.cfg.BaseURL)
}

func TestEmbedText(t *testing.T) {
	var gotBody map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		embedding := make([]float64, Dimension)
		embedding[0] = 0.5
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": embedding}},
		})
	})

	vec, err := provider.EmbedText(context.Background(), "red sneakers")
	require.NoError(t, err)
	require.Len(t, vec, Dimension)
	require.Equal(t, float32(0.5), vec[0])

	require.Equal(t, "red sneakers", gotBody["input"])
	require.Equal(t, "text-embedding-3-small", gotBody["model"])
}

func TestEmbedText_WrongDimension(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{0.1, 0.2, 0.3}}},
		})
	})

	_, err := provider.EmbedText(context.Background(), "red sneakers")
	require.Error(t, err)
	require.Contains(t, err.Error(), "dimensions")
}

func TestEmbedText_EmptyData(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	_, err := provider.EmbedText(context.Background(), "red sneakers")
	require.Error(t, err)
}

func TestEmbedText_APIError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	})

	_, err := provider.EmbedText(context.Background(), "red sneakers")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
	require.Contains(t, err.Error(), "rate limit exceeded")
}

func TestDescribeImage(t *testing.T) {
	var gotBody map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Red canvas sneakers with white rubber soles."}},
			},
		})
	})

	caption, err := provider.DescribeImage(context.Background(), "https://img/query.png")
	require.NoError(t, err)
	require.Equal(t, "Red canvas sneakers with white rubber soles.", caption)

	require.Equal(t, "gpt-4o-mini", gotBody["model"])

	// The prompt and the image URL travel in the same user message.
	raw, err := json.Marshal(gotBody["messages"])
	require.NoError(t, err)
	require.Contains(t, string(raw), "https://img/query.png")
	require.True(t, strings.Contains(string(raw), "visual features"))
}

func TestDescribeImage_EmptyCaption(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": ""}}},
		})
	})

	_, err := provider.DescribeImage(context.Background(), "https://img/query.png")
	require.Error(t, err)
}

func TestPost_ContextCancelled(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{}")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.EmbedText(ctx, "red sneakers")
	require.Error(t, err)
}
