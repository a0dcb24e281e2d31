package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbhavake/dentalgpt/internal/model"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/repo"
)

type PatientService struct {
	patients *repo.PatientRepo
}

func NewPatientService(patients *repo.PatientRepo) *PatientService {
	return &PatientService{patients: patients}
}

type PatientInput struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DateOfBirth    string `json:"date_of_birth"`
	Gender         string `json:"gender"`
	Address        string `json:"address"`
	MedicalHistory string `json:"medical_history"`
	DentalHistory  string `json:"dental_history"`
	Allergies      string `json:"allergies"`
	Medications    string `json:"medications"`
	Summary        string `json:"summary"`
}

func (s *PatientService) Create(ctx context.Context, userID string, in *PatientInput) (*model.Patient, error) {
	id := strings.TrimSpace(in.ID)
	name := strings.TrimSpace(in.Name)
	if id == "" {
		return nil, fmt.Errorf("%w: patient id is required", appErr.ErrInvalid)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: patient name is required", appErr.ErrInvalid)
	}
	now := timeutil.NowUnix()
	p := &model.Patient{
		ID:             id,
		UserID:         userID,
		Name:           name,
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		DateOfBirth:    strings.TrimSpace(in.DateOfBirth),
		Gender:         strings.TrimSpace(in.Gender),
		Address:        in.Address,
		MedicalHistory: in.MedicalHistory,
		DentalHistory:  in.DentalHistory,
		Allergies:      in.Allergies,
		Medications:    in.Medications,
		Summary:        in.Summary,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PatientService) Get(ctx context.Context, userID, patientID string) (*model.Patient, error) {
	return s.patients.Get(ctx, userID, patientID)
}

func (s *PatientService) List(ctx context.Context, userID string) ([]*model.Patient, error) {
	return s.patients.List(ctx, userID)
}

// patchFields maps request keys onto patient columns; anything else in the
// request body is rejected rather than silently dropped.
var patchFields = map[string]string{
	"name":            "name",
	"email":           "email",
	"phone":           "phone",
	"date_of_birth":   "date_of_birth",
	"gender":          "gender",
	"address":         "address",
	"medical_history": "medical_history",
	"dental_history":  "dental_history",
	"allergies":       "allergies",
	"medications":     "medications",
	"summary":         "summary",
}

func (s *PatientService) Update(ctx context.Context, userID, patientID string, fields map[string]interface{}) (*model.Patient, error) {
	update := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		col, ok := patchFields[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", appErr.ErrInvalid, key)
		}
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", appErr.ErrInvalid, key)
		}
		if col == "name" && strings.TrimSpace(str) == "" {
			return nil, fmt.Errorf("%w: patient name cannot be empty", appErr.ErrInvalid)
		}
		update[col] = str
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", appErr.ErrInvalid)
	}
	update["mtime"] = timeutil.NowUnix()
	if err := s.patients.Update(ctx, userID, patientID, update); err != nil {
		return nil, err
	}
	return s.patients.Get(ctx, userID, patientID)
}
