package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/kbhavake/dentalgpt/internal/model"
	"github.com/kbhavake/dentalgpt/internal/pkg/dbutil"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts a user on first login and refreshes profile fields on every
// later login. The stored row id wins over the candidate id on conflict.
func (r *UserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	const query = `
		INSERT INTO users (id, google_id, email, name, picture_url, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (google_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			picture_url = EXCLUDED.picture_url,
			mtime = EXCLUDED.mtime
		RETURNING id, google_id, email, name, picture_url, ctime, mtime
	`
	row := r.db.QueryRowContext(ctx, query,
		user.ID, user.GoogleID, user.Email, user.Name, user.PictureURL, user.Ctime)
	var out model.User
	if err := row.Scan(&out.ID, &out.GoogleID, &out.Email, &out.Name, &out.PictureURL, &out.Ctime, &out.Mtime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	where := map[string]interface{}{"id": userID}
	sqlStr, args, err := builder.BuildSelect("users", where,
		[]string{"id", "google_id", "email", "name", "picture_url", "ctime", "mtime"})
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
	var user model.User
	if err := rows.Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.PictureURL, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	return &user, nil
}
