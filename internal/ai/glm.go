package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultGLMBaseURL = "https://open.bigmodel.cn/api/paas/v4"

// bigmodel.cn business codes that mean "no more requests for you today".
var glmQuotaCodes = map[string]struct{}{
	"1113": {},
	"1302": {},
	"1305": {},
}

type glmConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type glmProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type glmTextPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// image_url parts
	ImageURL *glmImageURL `json:"image_url,omitempty"`
}

type glmImageURL struct {
	URL string `json:"url"`
}

type glmMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type glmChatRequest struct {
	Model    string       `json:"model"`
	Messages []glmMessage `json:"messages"`
	Stream   bool         `json:"stream"`
}

type glmChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *glmAPIError `json:"error"`
}

type glmAPIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *glmProvider) Name() string {
	return "glm"
}

func (p *glmProvider) Generate(ctx context.Context, model string, prompt string, image *Image) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("%w: glm api key not configured", ErrUnavailable)
	}
	if image == nil {
		return p.chat(ctx, model, []glmMessage{{Role: "user", Content: prompt}})
	}
	dataURL := "data:" + image.MIME + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	multimodal := []glmMessage{{
		Role: "user",
		Content: []glmTextPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &glmImageURL{URL: dataURL}},
		},
	}}
	answer, err := p.chat(ctx, model, multimodal)
	if err == nil {
		return answer, nil
	}
	if !isGLMFormatRejection(err) {
		return "", err
	}
	// Some glm models reject the multimodal message shape. Retry once with a
	// degraded text-only prompt that at least mentions the attachment.
	logutil.GetLogger(ctx).Warn("glm rejected multimodal message, retrying text-only", zap.Error(err))
	degraded := fmt.Sprintf("%s\n\n(Note: the user attached an image of %d bytes that could not be transmitted to the model.)", prompt, len(image.Data))
	return p.chat(ctx, model, []glmMessage{{Role: "user", Content: degraded}})
}

// Embed exists to satisfy IProvider; glm exposes no embedding endpoint and the
// wiring layer substitutes the ollama embedder instead.
func (p *glmProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	return nil, fmt.Errorf("%w: glm has no embedding endpoint", ErrUnavailable)
}

func (p *glmProvider) chat(ctx context.Context, model string, messages []glmMessage) (string, error) {
	reqBody := glmChatRequest{Model: model, Messages: messages, Stream: false}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: glm: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if err := classifyGLMBody(body); err != nil {
			return "", err
		}
		return "", classifyHTTP("glm", resp.StatusCode, string(body))
	}
	var out glmChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.Error != nil {
		if _, ok := glmQuotaCodes[out.Error.Code]; ok {
			return "", fmt.Errorf("%w: glm code %s: %s", ErrQuotaExceeded, out.Error.Code, out.Error.Message)
		}
		return "", fmt.Errorf("glm request failed: code %s: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("glm response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func classifyGLMBody(body []byte) error {
	var out glmChatResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Error == nil {
		return nil
	}
	if _, ok := glmQuotaCodes[out.Error.Code]; ok {
		return fmt.Errorf("%w: glm code %s: %s", ErrQuotaExceeded, out.Error.Code, out.Error.Message)
	}
	return nil
}

func isGLMFormatRejection(err error) bool {
	// A 400 on a multimodal request means the model rejected the message
	// shape. Quota errors never reach here as ErrBadRequest: the body is
	// classified for quota codes before the status.
	return errors.Is(err, ErrBadRequest)
}

func createGLMFactory(args interface{}) (IProvider, error) {
	cfg := &glmConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultGLMBaseURL
	}
	return &glmProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Minute},
	}, nil
}

func init() {
	Register("glm", createGLMFactory)
}
