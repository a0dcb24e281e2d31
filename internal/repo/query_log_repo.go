package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/kbhavake/dentalgpt/internal/model"
)

type QueryLogRepo struct {
	db *sql.DB
}

func NewQueryLogRepo(db *sql.DB) *QueryLogRepo {
	return &QueryLogRepo{db: db}
}

func (r *QueryLogRepo) Create(ctx context.Context, entry *model.QueryLog) error {
	sources, err := marshalSources(entry.SourceDocs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dental_queries (id, user_id, patient_id, query_text, ai_response, source_docs, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.UserID, entry.PatientID, entry.QueryText, entry.AIResponse, sources, entry.Ctime)
	return err
}

func (r *QueryLogRepo) ListByPatient(ctx context.Context, userID, patientID string, limit int) ([]*model.QueryLog, error) {
	const query = `
		SELECT id, user_id, patient_id, query_text, ai_response, source_docs, ctime
		FROM dental_queries
		WHERE user_id = $1 AND patient_id = $2
		ORDER BY ctime DESC
		LIMIT $3
	`
	return r.queryList(ctx, query, userID, patientID, limit)
}

func (r *QueryLogRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*model.QueryLog, error) {
	const query = `
		SELECT id, user_id, patient_id, query_text, ai_response, source_docs, ctime
		FROM dental_queries
		WHERE user_id = $1
		ORDER BY ctime DESC
		LIMIT $2
	`
	return r.queryList(ctx, query, userID, limit)
}

func (r *QueryLogRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dental_queries WHERE ctime < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *QueryLogRepo) queryList(ctx context.Context, query string, args ...interface{}) ([]*model.QueryLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var entries []*model.QueryLog
	for rows.Next() {
		var entry model.QueryLog
		var sources []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.PatientID, &entry.QueryText, &entry.AIResponse, &sources, &entry.Ctime); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &entry.SourceDocs); err != nil {
				return nil, err
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
