package vector

import "context"

// Chunk is one embedded slice of a source document.
type Chunk struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  map[string]interface{}
}

// Match is a nearest-neighbor hit; Score is cosine similarity in [0,1].
type Match struct {
	ID       string
	Score    float32
	Text     string
	Metadata map[string]interface{}
}

type Stats struct {
	Dimension int   `json:"dimension"`
	Count     int64 `json:"count"`
}

// Index is the nearest-neighbor store behind the retrieval pipeline. The
// process-local implementation lives on Postgres/pgvector; a hosted backend
// would implement the same contract.
type Index interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	Stats(ctx context.Context) (*Stats, error)
}
