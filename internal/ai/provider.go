package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Task types passed through to embedding providers that distinguish
// query-side from document-side embeddings.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Image is an inline image attached to a generation request.
type Image struct {
	MIME string
	Data []byte
}

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string, image *Image) (string, error)
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string, image *Image) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type generator struct {
	provider    IProvider
	model       string
	visionModel string
}

// NewGenerator binds a provider to its text model and, optionally, a separate
// vision model used whenever an image rides along.
func NewGenerator(p IProvider, model, visionModel string) IGenerator {
	return &generator{provider: p, model: model, visionModel: visionModel}
}

func (g *generator) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	model := g.model
	if image != nil && g.visionModel != "" {
		model = g.visionModel
	}
	return g.provider.Generate(ctx, model, prompt, image)
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
