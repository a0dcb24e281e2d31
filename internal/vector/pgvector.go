package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
)

// PGIndex stores chunks in the rag_chunks table with a pgvector column. The
// column dimension is fixed at table-creation time; both write and read paths
// reject vectors of any other length so that switching embedding providers
// cannot silently mix vector spaces.
type PGIndex struct {
	db        *sql.DB
	dimension int
}

func NewPGIndex(db *sql.DB, dimension int) *PGIndex {
	return &PGIndex{db: db, dimension: dimension}
}

func (x *PGIndex) checkDimension(embedding []float32) error {
	if len(embedding) != x.dimension {
		return fmt.Errorf("%w: embedding has %d dimensions, index expects %d", appErr.ErrInvalid, len(embedding), x.dimension)
	}
	return nil
}

func (x *PGIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	const query = `
		INSERT INTO rag_chunks (id, embedding, text, metadata, ctime)
		VALUES ($1, $2, $3, $4, EXTRACT(EPOCH FROM NOW())::BIGINT)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			text = EXCLUDED.text,
			metadata = EXCLUDED.metadata,
			ctime = EXCLUDED.ctime
	`
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, chunk := range chunks {
		if err := x.checkDimension(chunk.Embedding); err != nil {
			return err
		}
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			chunk.ID,
			pgvector.NewVector(chunk.Embedding),
			chunk.Text,
			meta,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (x *PGIndex) Query(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if err := x.checkDimension(embedding); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}
	const query = `
		SELECT id, text, metadata, 1 - (embedding <=> $1) AS score
		FROM rag_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := x.db.QueryContext(ctx, query, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var matches []Match
	for rows.Next() {
		var m Match
		var meta []byte
		if err := rows.Scan(&m.ID, &m.Text, &meta, &m.Score); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, err
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (x *PGIndex) Stats(ctx context.Context) (*Stats, error) {
	var count int64
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rag_chunks`).Scan(&count); err != nil {
		return nil, err
	}
	return &Stats{Dimension: x.dimension, Count: count}, nil
}
