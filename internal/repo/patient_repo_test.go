package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbhavake/dentalgpt/internal/model"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/repo"
	"github.com/kbhavake/dentalgpt/internal/testutil"
)

func TestPatientRepoCRUDAndOwnership(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	patients := repo.NewPatientRepo(db)
	now := timeutil.NowUnix()
	// patient deletion is not exposed, so keep ids unique across runs
	patientID := fmt.Sprintf("P-%d", now)
	patient := &model.Patient{
		ID:        patientID,
		UserID:    "dentist-1",
		Name:      "Jordan Smith",
		Allergies: "penicillin",
		Ctime:     now,
		Mtime:     now,
	}
	require.NoError(t, patients.Create(context.Background(), patient))

	// same id under the same owner conflicts
	err := patients.Create(context.Background(), patient)
	require.ErrorIs(t, err, appErr.ErrConflict)

	// same id under a different owner is fine
	other := *patient
	other.UserID = "dentist-2"
	require.NoError(t, patients.Create(context.Background(), &other))

	fetched, err := patients.Get(context.Background(), "dentist-1", patientID)
	require.NoError(t, err)
	require.Equal(t, "Jordan Smith", fetched.Name)
	require.Equal(t, "penicillin", fetched.Allergies)

	_, err = patients.Get(context.Background(), "dentist-3", patientID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, patients.Update(context.Background(), "dentist-1", patientID, map[string]interface{}{
		"medications": "ibuprofen",
		"mtime":       timeutil.NowUnix(),
	}))
	fetched, err = patients.Get(context.Background(), "dentist-1", patientID)
	require.NoError(t, err)
	require.Equal(t, "ibuprofen", fetched.Medications)

	err = patients.Update(context.Background(), "dentist-3", patientID, map[string]interface{}{"name": "x"})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	listed, err := patients.List(context.Background(), "dentist-1")
	require.NoError(t, err)
	require.NotEmpty(t, listed)
}
