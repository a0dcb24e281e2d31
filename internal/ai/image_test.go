package ai

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDownscaleKeepsSmallImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	img := &Image{MIME: "image/png", Data: buf.Bytes()}

	out, err := Downscale(img, 1024)
	require.NoError(t, err)
	require.Same(t, img, out)
}

func TestDownscaleShrinksOversizedImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2048, 512))))
	img := &Image{MIME: "image/png", Data: buf.Bytes()}

	out, err := Downscale(img, 1024)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", out.MIME)
	decoded, _, err := image.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	require.Equal(t, 1024, decoded.Bounds().Dx())
	require.Equal(t, 256, decoded.Bounds().Dy())
}

func TestDownscaleDecodesWebp(t *testing.T) {
	// 1x1 lossless webp
	data, err := base64.StdEncoding.DecodeString("UklGRhYAAABXRUJQVlA4TAkAAAAvAAAAAIiI/gcA")
	require.NoError(t, err)
	img := &Image{MIME: "image/webp", Data: data}

	out, err := Downscale(img, 1024)
	require.NoError(t, err)
	require.Same(t, img, out)
}
