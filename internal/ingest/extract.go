package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractText pulls plain text out of an uploaded document. The filename is
// only used for its extension; content sniffing is deliberately not done.
func ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		extracted string
		err       error
	)
	switch ext {
	case ".txt":
		extracted = string(data)
	case ".md":
		extracted = extractMarkdown(data)
	case ".pdf":
		extracted, err = extractPDF(data)
	case ".docx":
		extracted, err = extractDocx(data)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", appErr.ErrInvalid, ext)
	}
	if err != nil {
		return "", err
	}
	extracted = strings.TrimSpace(extracted)
	if extracted == "" {
		return "", fmt.Errorf("%w: no extractable text in %q", appErr.ErrInvalid, filename)
	}
	return extracted, nil
}

// extractMarkdown walks the goldmark AST and keeps only text nodes, so
// formatting syntax never leaks into embeddings.
func extractMarkdown(data []byte) string {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)
	var sb strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(data))
			if n.SoftLineBreak() || n.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(data))
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse pdf: %v", appErr.ErrInvalid, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read pdf text: %v", appErr.ErrInvalid, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: read pdf text: %v", appErr.ErrInvalid, err)
	}
	return buf.String(), nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse docx: %v", appErr.ErrInvalid, err)
	}
	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			sb.WriteString(fmt.Sprint(item))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
