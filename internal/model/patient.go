package model

// Patient ids are chosen by the caller (e.g. a clinic chart number) and are
// unique per owning user, not globally.
type Patient struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Address        string `json:"address,omitempty"`
	MedicalHistory string `json:"medical_history,omitempty"`
	DentalHistory  string `json:"dental_history,omitempty"`
	Allergies      string `json:"allergies,omitempty"`
	Medications    string `json:"medications,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}
