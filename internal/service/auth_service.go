package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbhavake/dentalgpt/internal/googleauth"
	"github.com/kbhavake/dentalgpt/internal/model"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/jwt"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/repo"
)

type AuthService struct {
	verifier *googleauth.Verifier
	users    *repo.UserRepo
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(verifier *googleauth.Verifier, users *repo.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{verifier: verifier, users: users, secret: secret, ttl: ttl}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login verifies a Google credential, upserts the matching account and mints
// a session token. First login creates the account; later logins refresh the
// stored profile fields.
func (s *AuthService) Login(ctx context.Context, credential string) (*LoginResult, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: token is required", appErr.ErrInvalid)
	}
	profile, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	user, err := s.users.Upsert(ctx, &model.User{
		ID:         newID(),
		GoogleID:   profile.GoogleID,
		Email:      profile.Email,
		Name:       profile.Name,
		PictureURL: profile.Picture,
		Ctime:      now,
		Mtime:      now,
	})
	if err != nil {
		return nil, err
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.secret, s.ttl)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}
