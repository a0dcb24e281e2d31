package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/kbhavake/dentalgpt/internal/model"
	"github.com/kbhavake/dentalgpt/internal/pkg/dbutil"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const insertMessageQuery = `
	INSERT INTO chat_messages (id, chat_id, seq, role, content, image, sources, ctime)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

const lastSeqQuery = `SELECT COALESCE(MAX(seq), 0) FROM chat_messages WHERE chat_id = $1`

func (r *MessageRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	sources, err := marshalSources(msg.Sources)
	if err != nil {
		return err
	}
	var lastSeq int64
	if err := r.db.QueryRowContext(ctx, lastSeqQuery, msg.ChatID).Scan(&lastSeq); err != nil {
		return err
	}
	msg.Seq = lastSeq + 1
	_, err = r.db.ExecContext(ctx, insertMessageQuery,
		msg.ID, msg.ChatID, msg.Seq, msg.Role, msg.Content, msg.Image, sources, msg.Ctime)
	return err
}

// AppendTurn persists one full exchange atomically: the user message, the AI
// message and the owning chat's bookkeeping (mtime bump, optional title). A
// crash mid-request can therefore never leave a half-written turn behind.
// Sequence numbers are assigned inside the transaction, user row first, so
// listing stays question-before-answer even when both rows share a ctime.
func (r *MessageRepo) AppendTurn(ctx context.Context, chatID string, userMsg, aiMsg *model.ChatMessage, chatUpdate map[string]interface{}) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	var lastSeq int64
	if err := tx.QueryRowContext(ctx, lastSeqQuery, chatID).Scan(&lastSeq); err != nil {
		return err
	}
	for _, msg := range []*model.ChatMessage{userMsg, aiMsg} {
		if msg == nil {
			continue
		}
		sources, err := marshalSources(msg.Sources)
		if err != nil {
			return err
		}
		lastSeq++
		msg.Seq = lastSeq
		if _, err := tx.ExecContext(ctx, insertMessageQuery,
			msg.ID, msg.ChatID, msg.Seq, msg.Role, msg.Content, msg.Image, sources, msg.Ctime); err != nil {
			return err
		}
	}
	if len(chatUpdate) > 0 {
		sqlStr, args, err := builder.BuildUpdate("chats", map[string]interface{}{"id": chatID}, chatUpdate)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns the chat's messages oldest-first, optionally limited to the
// most recent `limit` rows.
func (r *MessageRepo) List(ctx context.Context, chatID string, limit int) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, chat_id, seq, role, content, image, sources, ctime
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var messages []*model.ChatMessage
	for rows.Next() {
		var msg model.ChatMessage
		var sources []byte
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Seq, &msg.Role, &msg.Content, &msg.Image, &sources, &msg.Ctime); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &msg.Sources); err != nil {
				return nil, err
			}
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func (r *MessageRepo) CountUserMessages(ctx context.Context, chatID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE chat_id = $1 AND role = $2`,
		chatID, model.RoleUser).Scan(&count)
	return count, err
}

func marshalSources(sources []model.Source) (interface{}, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}
	return data, nil
}
