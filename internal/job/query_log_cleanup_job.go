package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbhavake/dentalgpt/internal/repo"
)

// QueryLogCleanupJob trims the dental_queries audit table so it does not
// grow without bound. keepDays <= 0 keeps rows forever.
type QueryLogCleanupJob struct {
	repo     *repo.QueryLogRepo
	keepDays int
}

func NewQueryLogCleanupJob(repo *repo.QueryLogRepo, keepDays int) *QueryLogCleanupJob {
	return &QueryLogCleanupJob{repo: repo, keepDays: keepDays}
}

func (j *QueryLogCleanupJob) Name() string {
	return "query_log_cleanup"
}

func (j *QueryLogCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil || j.keepDays <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-time.Duration(j.keepDays) * 24 * time.Hour).Unix()
	deleted, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("trimmed query audit log", zap.Int64("deleted", deleted))
	}
	return nil
}
