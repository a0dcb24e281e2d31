package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/kbhavake/dentalgpt/internal/model"
	"github.com/kbhavake/dentalgpt/internal/pkg/dbutil"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
)

var patientColumns = []string{
	"id", "user_id", "name", "email", "phone", "date_of_birth", "gender",
	"address", "medical_history", "dental_history", "allergies",
	"medications", "summary", "ctime", "mtime",
}

type PatientRepo struct {
	db *sql.DB
}

func NewPatientRepo(db *sql.DB) *PatientRepo {
	return &PatientRepo{db: db}
}

func (r *PatientRepo) Create(ctx context.Context, p *model.Patient) error {
	data := map[string]interface{}{
		"id":              p.ID,
		"user_id":         p.UserID,
		"name":            p.Name,
		"email":           p.Email,
		"phone":           p.Phone,
		"date_of_birth":   p.DateOfBirth,
		"gender":          p.Gender,
		"address":         p.Address,
		"medical_history": p.MedicalHistory,
		"dental_history":  p.DentalHistory,
		"allergies":       p.Allergies,
		"medications":     p.Medications,
		"summary":         p.Summary,
		"ctime":           p.Ctime,
		"mtime":           p.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("patients", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PatientRepo) Get(ctx context.Context, userID, patientID string) (*model.Patient, error) {
	where := map[string]interface{}{"user_id": userID, "id": patientID}
	sqlStr, args, err := builder.BuildSelect("patients", where, patientColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	patient, err := scanPatient(rows)
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (r *PatientRepo) List(ctx context.Context, userID string) ([]*model.Patient, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "name asc",
	}
	sqlStr, args, err := builder.BuildSelect("patients", where, patientColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var patients []*model.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, rows.Err()
}

// Update applies a partial patch built by the service layer. The update map
// keys are column names; unknown fields never reach this point.
func (r *PatientRepo) Update(ctx context.Context, userID, patientID string, update map[string]interface{}) error {
	if len(update) == 0 {
		return nil
	}
	where := map[string]interface{}{"user_id": userID, "id": patientID}
	sqlStr, args, err := builder.BuildUpdate("patients", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanPatient(rows *sql.Rows) (*model.Patient, error) {
	var p model.Patient
	if err := rows.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.DateOfBirth,
		&p.Gender, &p.Address, &p.MedicalHistory, &p.DentalHistory,
		&p.Allergies, &p.Medications, &p.Summary, &p.Ctime, &p.Mtime,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
