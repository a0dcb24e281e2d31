package model

type Chat struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	PatientID string `json:"patient_id,omitempty"`
	Title     string `json:"title"`
	Favorite  int    `json:"favorite"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// ChatMessage rows are immutable once written.
type ChatMessage struct {
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
	// Seq orders messages within a chat; both rows of a turn share a
	// second-resolution ctime, so ctime alone cannot.
	Seq     int64    `json:"-"`
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Image   string   `json:"image,omitempty"`
	Sources []Source `json:"sources,omitempty"`
	Ctime   int64    `json:"ctime"`
}

// Source is one retrieved chunk attached to an AI reply. Text is truncated for
// the response payload; the full chunk text only ever feeds the prompt.
type Source struct {
	Text     string                 `json:"text"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
