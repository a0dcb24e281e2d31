package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type fallbackGenerator struct {
	items []GeneratorEntry
}

// NewFallbackGenerator chains generators: a later entry only runs when the
// previous one failed with a quota or availability error. Any other failure
// (bad prompt, missing model) surfaces immediately. Fallback entries get a
// text-only call; the image stays with the primary.
func NewFallbackGenerator(items []GeneratorEntry) IGenerator {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return items[0].Generator
	}
	return &fallbackGenerator{items: items}
}

func (g *fallbackGenerator) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		img := image
		if i > 0 {
			img = nil
		}
		res, err := item.Generator.Generate(ctx, prompt, img)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrQuotaExceeded) && !errors.Is(err, ErrUnavailable) {
			return "", err
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("generator failed, falling back",
			zap.Int("index", i),
			zap.String("name", item.Name),
			zap.Error(err),
		)
	}
	if lastErr == nil {
		return "", fmt.Errorf("generator not configured")
	}
	return "", lastErr
}
