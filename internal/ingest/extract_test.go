package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
)

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText("notes.txt", []byte("  periodontal charting basics  "))
	require.NoError(t, err)
	require.Equal(t, "periodontal charting basics", text)
}

func TestExtractTextUnsupportedExtension(t *testing.T) {
	_, err := ExtractText("slides.pptx", []byte("data"))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestExtractTextEmptyAfterExtraction(t *testing.T) {
	_, err := ExtractText("blank.txt", []byte("   \n\t  "))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestExtractTextMarkdownStripsSyntax(t *testing.T) {
	md := "# Root Canal Protocol\n\nUse **rubber dam** isolation.\n\n- irrigate\n- obturate\n"
	text, err := ExtractText("protocol.md", []byte(md))
	require.NoError(t, err)
	require.Contains(t, text, "Root Canal Protocol")
	require.Contains(t, text, "rubber dam")
	require.Contains(t, text, "irrigate")
	require.NotContains(t, text, "#")
	require.NotContains(t, text, "**")
}

func TestExtractTextCorruptPDF(t *testing.T) {
	_, err := ExtractText("broken.pdf", []byte("not a pdf"))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
