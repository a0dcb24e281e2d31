package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbhavake/dentalgpt/internal/config"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
)

var supportedAudioExts = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".m4a":  true,
	".wav":  true,
	".webm": true,
	".ogg":  true,
	".flac": true,
}

// VoiceService transcribes audio clips through an OpenAI-compatible
// transcription endpoint.
type VoiceService struct {
	client *openai.Client
	model  string
}

func NewVoiceService(cfg config.VoiceConfig) (*VoiceService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("voice api_key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &VoiceService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

func (s *VoiceService) Transcribe(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: audio file is empty", appErr.ErrInvalid)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedAudioExts[ext] {
		return "", fmt.Errorf("%w: unsupported audio type %q", appErr.ErrInvalid, ext)
	}
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: filename,
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("transcription failed",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: transcription failed: %v", appErr.ErrInternal, err)
	}
	return resp.Text, nil
}
