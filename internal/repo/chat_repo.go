package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/kbhavake/dentalgpt/internal/model"
	"github.com/kbhavake/dentalgpt/internal/pkg/dbutil"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
)

var chatColumns = []string{"id", "user_id", "patient_id", "title", "favorite", "ctime", "mtime"}

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, chat *model.Chat) error {
	data := map[string]interface{}{
		"id":         chat.ID,
		"user_id":    chat.UserID,
		"patient_id": chat.PatientID,
		"title":      chat.Title,
		"favorite":   chat.Favorite,
		"ctime":      chat.Ctime,
		"mtime":      chat.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chats", []map[string]interface{}{data})
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

func (r *ChatRepo) Get(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	where := map[string]interface{}{"user_id": userID, "id": chatID}
	sqlStr, args, err := builder.BuildSelect("chats", where, chatColumns)
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
	return scanChat(rows)
}

// List returns the owner's chats, most recently touched first. A non-empty
// patientID narrows the result to chats linked to that patient.
func (r *ChatRepo) List(ctx context.Context, userID, patientID string) ([]*model.Chat, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "mtime desc",
	}
	if patientID != "" {
		where["patient_id"] = patientID
	}
	sqlStr, args, err := builder.BuildSelect("chats", where, chatColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var chats []*model.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (r *ChatRepo) Update(ctx context.Context, userID, chatID string, update map[string]interface{}) error {
	if len(update) == 0 {
		return nil
	}
	where := map[string]interface{}{"user_id": userID, "id": chatID}
	sqlStr, args, err := builder.BuildUpdate("chats", where, update)
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

// Delete removes a chat and all of its messages in one transaction.
func (r *ChatRepo) Delete(ctx context.Context, userID, chatID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	result, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE user_id = $1 AND id = $2`, userID, chatID)
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE chat_id = $1`, chatID); err != nil {
		return err
	}
	return tx.Commit()
}

func scanChat(rows *sql.Rows) (*model.Chat, error) {
	var chat model.Chat
	if err := rows.Scan(&chat.ID, &chat.UserID, &chat.PatientID, &chat.Title, &chat.Favorite, &chat.Ctime, &chat.Mtime); err != nil {
		return nil, err
	}
	return &chat, nil
}
