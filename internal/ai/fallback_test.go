package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply     string
	err       error
	calls     int
	lastImage *Image
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	f.calls++
	f.lastImage = image
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestFallbackGeneratorPrimarySucceeds(t *testing.T) {
	primary := &fakeGenerator{reply: "primary answer"}
	secondary := &fakeGenerator{reply: "secondary answer"}
	gen := NewFallbackGenerator([]GeneratorEntry{
		{Name: "glm", Generator: primary},
		{Name: "ollama", Generator: secondary},
	})

	res, err := gen.Generate(context.Background(), "prompt", nil)
	require.NoError(t, err)
	require.Equal(t, "primary answer", res)
	require.Equal(t, 0, secondary.calls)
}

func TestFallbackGeneratorQuotaFallsThrough(t *testing.T) {
	primary := &fakeGenerator{err: fmt.Errorf("%w: glm: balance exhausted", ErrQuotaExceeded)}
	secondary := &fakeGenerator{reply: "fallback answer"}
	gen := NewFallbackGenerator([]GeneratorEntry{
		{Name: "glm", Generator: primary},
		{Name: "ollama", Generator: secondary},
	})

	img := &Image{MIME: "image/jpeg", Data: []byte{1, 2, 3}}
	res, err := gen.Generate(context.Background(), "prompt", img)
	require.NoError(t, err)
	require.Equal(t, "fallback answer", res)
	require.Equal(t, img, primary.lastImage)
	// the fallback runs text-only
	require.Nil(t, secondary.lastImage)
}

func TestFallbackGeneratorHardErrorStops(t *testing.T) {
	primary := &fakeGenerator{err: fmt.Errorf("%w: glm: llama9000", ErrModelNotFound)}
	secondary := &fakeGenerator{reply: "should not run"}
	gen := NewFallbackGenerator([]GeneratorEntry{
		{Name: "glm", Generator: primary},
		{Name: "ollama", Generator: secondary},
	})

	_, err := gen.Generate(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, ErrModelNotFound)
	require.Equal(t, 0, secondary.calls)
}

func TestFallbackGeneratorAllFail(t *testing.T) {
	primary := &fakeGenerator{err: fmt.Errorf("%w: glm", ErrQuotaExceeded)}
	secondary := &fakeGenerator{err: fmt.Errorf("%w: ollama down", ErrUnavailable)}
	gen := NewFallbackGenerator([]GeneratorEntry{
		{Name: "glm", Generator: primary},
		{Name: "ollama", Generator: secondary},
	})

	_, err := gen.Generate(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFallbackGeneratorSingleEntryUnwrapped(t *testing.T) {
	only := &fakeGenerator{reply: "only"}
	gen := NewFallbackGenerator([]GeneratorEntry{{Name: "ollama", Generator: only}})
	res, err := gen.Generate(context.Background(), "prompt", nil)
	require.NoError(t, err)
	require.Equal(t, "only", res)
}

func TestClassifyHTTP(t *testing.T) {
	require.ErrorIs(t, classifyHTTP("glm", 400, `{"msg":"invalid message format"}`), ErrBadRequest)
	require.ErrorIs(t, classifyHTTP("ollama", 404, `{"error":"model not found"}`), ErrModelNotFound)
	require.ErrorIs(t, classifyHTTP("glm", 429, "too many requests"), ErrQuotaExceeded)
	require.ErrorIs(t, classifyHTTP("glm", 401, "bad key"), ErrUnavailable)
	require.ErrorIs(t, classifyHTTP("glm", 403, "forbidden"), ErrUnavailable)

	err := classifyHTTP("ollama", 500, "boom")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrModelNotFound))
	require.False(t, errors.Is(err, ErrQuotaExceeded))
	require.False(t, errors.Is(err, ErrUnavailable))
	require.False(t, errors.Is(err, ErrBadRequest))
}
