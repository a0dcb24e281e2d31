package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbhavake/dentalgpt/internal/model"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/repo"
)

type ChatService struct {
	chats    *repo.ChatRepo
	messages *repo.MessageRepo
	patients *repo.PatientRepo
}

func NewChatService(chats *repo.ChatRepo, messages *repo.MessageRepo, patients *repo.PatientRepo) *ChatService {
	return &ChatService{chats: chats, messages: messages, patients: patients}
}

func (s *ChatService) Create(ctx context.Context, userID, title, patientID string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: chat title is required", appErr.ErrInvalid)
	}
	patientID = strings.TrimSpace(patientID)
	if patientID != "" {
		if _, err := s.patients.Get(ctx, userID, patientID); err != nil {
			return nil, err
		}
	}
	now := timeutil.NowUnix()
	chat := &model.Chat{
		ID:        newID(),
		UserID:    userID,
		PatientID: patientID,
		Title:     title,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	return s.chats.Get(ctx, userID, chatID)
}

func (s *ChatService) List(ctx context.Context, userID, patientID string) ([]*model.Chat, error) {
	return s.chats.List(ctx, userID, patientID)
}

// Update patches title, favorite flag or patient linkage. Linking to a patient
// re-checks that the patient belongs to the same user.
func (s *ChatService) Update(ctx context.Context, userID, chatID string, fields map[string]interface{}) (*model.Chat, error) {
	update := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		switch key {
		case "title":
			title, ok := value.(string)
			if !ok || strings.TrimSpace(title) == "" {
				return nil, fmt.Errorf("%w: title must be a non-empty string", appErr.ErrInvalid)
			}
			update["title"] = strings.TrimSpace(title)
		case "favorite":
			fav, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: favorite must be a boolean", appErr.ErrInvalid)
			}
			favorite := 0
			if fav {
				favorite = 1
			}
			update["favorite"] = favorite
		case "patient_id":
			patientID, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: patient_id must be a string", appErr.ErrInvalid)
			}
			patientID = strings.TrimSpace(patientID)
			if patientID != "" {
				if _, err := s.patients.Get(ctx, userID, patientID); err != nil {
					return nil, err
				}
			}
			update["patient_id"] = patientID
		default:
			return nil, fmt.Errorf("%w: unknown field %q", appErr.ErrInvalid, key)
		}
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", appErr.ErrInvalid)
	}
	update["mtime"] = timeutil.NowUnix()
	if err := s.chats.Update(ctx, userID, chatID, update); err != nil {
		return nil, err
	}
	return s.chats.Get(ctx, userID, chatID)
}

func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	return s.chats.Delete(ctx, userID, chatID)
}

func (s *ChatService) Messages(ctx context.Context, userID, chatID string) ([]*model.ChatMessage, error) {
	if _, err := s.chats.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.messages.List(ctx, chatID, 0)
}
