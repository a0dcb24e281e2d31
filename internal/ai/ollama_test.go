package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) *ollamaProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &ollamaProvider{
		baseURL: server.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestOllamaGenerate(t *testing.T) {
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "llama3.2:3b", req.Model)
		require.False(t, req.Stream)
		require.Empty(t, req.Images)
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: " generated text "})
	})

	answer, err := provider.Generate(context.Background(), "llama3.2:3b", "question", nil)
	require.NoError(t, err)
	require.Equal(t, "generated text", answer)
}

func TestOllamaGenerateWithImage(t *testing.T) {
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Images, 1)
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "vision answer"})
	})

	img := &Image{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}}
	answer, err := provider.Generate(context.Background(), "llava", "describe", img)
	require.NoError(t, err)
	require.Equal(t, "vision answer", answer)
}

func TestOllamaEmbed(t *testing.T) {
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	})

	values, err := provider.Embed(context.Background(), "nomic-embed-text", "text", TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, values)
}

func TestOllamaModelNotFound(t *testing.T) {
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'missing' not found"}`))
	})

	_, err := provider.Generate(context.Background(), "missing", "q", nil)
	require.ErrorIs(t, err, ErrModelNotFound)
}

func TestOllamaConnectionRefused(t *testing.T) {
	provider := &ollamaProvider{
		baseURL: "http://127.0.0.1:1",
		client:  &http.Client{Timeout: time.Second},
	}
	_, err := provider.Embed(context.Background(), "nomic-embed-text", "text", TaskRetrievalDocument)
	require.ErrorIs(t, err, ErrUnavailable)
}
