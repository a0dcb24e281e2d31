package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbhavake/dentalgpt/internal/ai"
	"github.com/kbhavake/dentalgpt/internal/filestore"
	"github.com/kbhavake/dentalgpt/internal/ingest"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/vector"
)

const upsertBatchSize = 100

type IngestService struct {
	chunker  *ingest.Chunker
	embedder ai.IEmbedder
	index    vector.Index
	store    filestore.Store
}

func NewIngestService(chunker *ingest.Chunker, embedder ai.IEmbedder, index vector.Index, store filestore.Store) *IngestService {
	return &IngestService{chunker: chunker, embedder: embedder, index: index, store: store}
}

type IngestResult struct {
	Chunks   int    `json:"chunks"`
	Filename string `json:"filename,omitempty"`
}

// IngestText chunks raw text, embeds every chunk and upserts the vectors in
// batches. Caller metadata is merged into each chunk's metadata.
func (s *IngestService) IngestText(ctx context.Context, text string, metadata map[string]interface{}) (*IngestResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", appErr.ErrInvalid)
	}
	chunks := s.chunker.Chunk(text)
	docID := fmt.Sprintf("doc_%d_%s", timeutil.NowUnix(), newID()[:8])

	vectors := make([]vector.Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk, ai.TaskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		chunkMeta := map[string]interface{}{
			"text":         chunk,
			"chunk_index":  i,
			"total_chunks": len(chunks),
		}
		for key, value := range metadata {
			chunkMeta[key] = value
		}
		vectors = append(vectors, vector.Chunk{
			ID:        fmt.Sprintf("%s_%d", docID, i),
			Embedding: embedding,
			Text:      chunk,
			Metadata:  chunkMeta,
		})
	}
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		if err := s.index.Upsert(ctx, vectors[start:end]); err != nil {
			return nil, err
		}
	}
	logutil.GetLogger(ctx).Info("ingested document",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(chunks)),
	)
	return &IngestResult{Chunks: len(chunks)}, nil
}

// IngestFile extracts text from an uploaded document, archives the raw bytes
// and runs the text ingestion path. Archive failures only log; the knowledge
// base update is what matters.
func (s *IngestService) IngestFile(ctx context.Context, filename, title string, data []byte) (*IngestResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", appErr.ErrInvalid)
	}
	text, err := ingest.ExtractText(filename, data)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = filename
	}
	res, err := s.IngestText(ctx, text, map[string]interface{}{
		"source_file": filename,
		"title":       title,
	})
	if err != nil {
		return nil, err
	}
	res.Filename = filename
	s.archive(ctx, filename, data)
	return res, nil
}

func (s *IngestService) archive(ctx context.Context, filename string, data []byte) {
	if s.store == nil {
		return
	}
	key := newID() + "_" + sanitizeFilename(filename)
	if err := s.store.Save(ctx, key, nopSeekCloser{bytes.NewReader(data)}, int64(len(data))); err != nil {
		logutil.GetLogger(ctx).Warn("failed to archive upload",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return
	}
	logutil.GetLogger(ctx).Debug("archived upload", zap.String("key", key))
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
