package model

// QueryLog is the audit row written for every answered question, kept in the
// dental_queries table independently of chat history.
type QueryLog struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	PatientID  string   `json:"patient_id,omitempty"`
	QueryText  string   `json:"query_text"`
	AIResponse string   `json:"ai_response"`
	SourceDocs []Source `json:"source_docs,omitempty"`
	Ctime      int64    `json:"ctime"`
}
