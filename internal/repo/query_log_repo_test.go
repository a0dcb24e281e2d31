package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbhavake/dentalgpt/internal/model"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/repo"
	"github.com/kbhavake/dentalgpt/internal/testutil"
)

func TestQueryLogRepoListAndCleanup(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	logs := repo.NewQueryLogRepo(db)
	now := timeutil.NowUnix()
	userID := fmt.Sprintf("ql-user-%d", now)

	entries := []*model.QueryLog{
		{
			ID:         fmt.Sprintf("ql-%d-1", now),
			UserID:     userID,
			PatientID:  "P-100",
			QueryText:  "what causes enamel erosion",
			AIResponse: "acidic diet and reflux are common causes",
			SourceDocs: []model.Source{{Text: "enamel erosion guideline excerpt", Score: 0.92}},
			Ctime:      now - 100,
		},
		{
			ID:         fmt.Sprintf("ql-%d-2", now),
			UserID:     userID,
			QueryText:  "fluoride varnish interval",
			AIResponse: "every three to six months for high risk patients",
			Ctime:      now - 50,
		},
		{
			ID:         fmt.Sprintf("ql-%d-3", now),
			UserID:     userID,
			PatientID:  "P-100",
			QueryText:  "follow up on erosion",
			AIResponse: "monitor and reassess at next recall",
			Ctime:      now,
		},
	}
	for _, entry := range entries {
		require.NoError(t, logs.Create(context.Background(), entry))
	}

	recent, err := logs.ListRecent(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// newest first
	require.Equal(t, entries[2].ID, recent[0].ID)
	require.Equal(t, entries[0].ID, recent[2].ID)
	require.Len(t, recent[2].SourceDocs, 1)
	require.Equal(t, "enamel erosion guideline excerpt", recent[2].SourceDocs[0].Text)
	require.Empty(t, recent[1].SourceDocs)

	byPatient, err := logs.ListByPatient(context.Background(), userID, "P-100", 10)
	require.NoError(t, err)
	require.Len(t, byPatient, 2)
	require.Equal(t, entries[2].ID, byPatient[0].ID)

	// another user sees nothing
	other, err := logs.ListRecent(context.Background(), "ql-nobody", 10)
	require.NoError(t, err)
	require.Empty(t, other)

	deleted, err := logs.DeleteBefore(context.Background(), now-75)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(1))
	recent, err = logs.ListRecent(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	_, err = db.Exec(`DELETE FROM dental_queries WHERE user_id = $1`, userID)
	require.NoError(t, err)
}
