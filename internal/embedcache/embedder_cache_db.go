package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/kbhavake/dentalgpt/internal/ai"
	"github.com/kbhavake/dentalgpt/internal/model"
	"github.com/kbhavake/dentalgpt/internal/repo"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WrapDBCacheToEmbedder persists embeddings to Postgres keyed by
// (model, task type, content hash) so that re-ingesting the same document
// never re-bills the provider. Save failures only log; the embedding is
// still returned to the caller.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), taskType, text)
	values, ok, err := d.repo.Get(ctx, modelName, taskType, contentHash)
	if err != nil {
		return nil, err
	}
	if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.String("task_type", taskType))
		return values, nil
	}
	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := d.repo.Save(ctx, &model.EmbeddingCache{
		ModelName:   modelName,
		TaskType:    taskType,
		ContentHash: contentHash,
		Embedding:   res,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	if d == nil || d.next == nil {
		return ""
	}
	return d.next.ModelName()
}

func buildCacheKey(modelName, taskType, text string) (cacheKey, contentHash, normalizedModel string) {
	normalizedModel = strings.TrimSpace(modelName)
	if normalizedModel == "" {
		normalizedModel = "unknown"
	}
	sum := sha256.Sum256([]byte(text))
	contentHash = hex.EncodeToString(sum[:])
	cacheKey = "embed:" + normalizedModel + ":" + taskType + ":" + contentHash
	return cacheKey, contentHash, normalizedModel
}
