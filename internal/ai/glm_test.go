package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestGLM(t *testing.T, handler http.HandlerFunc) (*glmProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &glmProvider{
		apiKey:  "test-key",
		baseURL: server.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}, server
}

func TestGLMGenerateText(t *testing.T) {
	provider, _ := newTestGLM(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req glmChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "glm-4", req.Model)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  an answer  "}},
			},
		})
	})

	answer, err := provider.Generate(context.Background(), "glm-4", "question", nil)
	require.NoError(t, err)
	require.Equal(t, "an answer", answer)
}

func TestGLMGenerateQuotaCode(t *testing.T) {
	provider, _ := newTestGLM(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "1113", "message": "insufficient balance"},
		})
	})

	_, err := provider.Generate(context.Background(), "glm-4", "question", nil)
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestGLMGenerateMultimodalFormatRetry(t *testing.T) {
	calls := 0
	provider, _ := newTestGLM(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req glmChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if calls == 1 {
			// reject the multimodal shape
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"msg":"invalid message format"}`)
			return
		}
		// second call must be plain text mentioning the attachment
		content, ok := req.Messages[0].Content.(string)
		require.True(t, ok)
		require.Contains(t, content, "3 bytes")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "degraded answer"}},
			},
		})
	})

	img := &Image{MIME: "image/png", Data: []byte{1, 2, 3}}
	answer, err := provider.Generate(context.Background(), "glm-4v", "what is this", img)
	require.NoError(t, err)
	require.Equal(t, "degraded answer", answer)
	require.Equal(t, 2, calls)
}

func TestGLMGenerateQuotaDoesNotTriggerFormatRetry(t *testing.T) {
	calls := 0
	provider, _ := newTestGLM(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "1302", "message": "rate limited"},
		})
	})

	img := &Image{MIME: "image/png", Data: []byte{1}}
	_, err := provider.Generate(context.Background(), "glm-4v", "prompt", img)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	require.Equal(t, 1, calls)
}

func TestGLMGenerateTextBadRequestNoRetry(t *testing.T) {
	calls := 0
	provider, _ := newTestGLM(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"msg":"prompt too long"}`)
	})

	_, err := provider.Generate(context.Background(), "glm-4", "prompt", nil)
	require.ErrorIs(t, err, ErrBadRequest)
	require.Equal(t, 1, calls)
}

func TestGLMEmbedUnsupported(t *testing.T) {
	provider := &glmProvider{apiKey: "k", baseURL: "http://invalid", client: http.DefaultClient}
	_, err := provider.Embed(context.Background(), "any", "text", TaskRetrievalQuery)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGLMGenerateNoAPIKey(t *testing.T) {
	provider := &glmProvider{client: http.DefaultClient}
	_, err := provider.Generate(context.Background(), "glm-4", "prompt", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}
