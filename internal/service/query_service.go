package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbhavake/dentalgpt/internal/ai"
	"github.com/kbhavake/dentalgpt/internal/model"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/repo"
	"github.com/kbhavake/dentalgpt/internal/vector"
)

const (
	retrievalTopK     = 5
	sourcePreviewMax  = 200
	historyWindow     = 10
	titleMax          = 30
	imageMaxDimension = 1024
)

const closingReply = "You're welcome! Feel free to come back any time you have more dental questions. Have a great day!"

// closingPhrases end a conversation when matched on their own; closingKeywords
// additionally flag very short messages ("ok thanks!", "bye now").
var closingPhrases = []string{
	"thank you",
	"thanks",
	"thank you so much",
	"thanks a lot",
	"ok thanks",
	"okay thanks",
	"that's all",
	"that is all",
	"bye",
	"goodbye",
	"good bye",
	"see you",
	"see you later",
	"have a good day",
}

var closingKeywords = []string{"thanks", "thank", "bye", "goodbye"}

type QueryService struct {
	chats     *repo.ChatRepo
	messages  *repo.MessageRepo
	patients  *repo.PatientRepo
	queryLogs *repo.QueryLogRepo
	index     vector.Index
	embedder  ai.IEmbedder
	generator ai.IGenerator
}

func NewQueryService(chats *repo.ChatRepo, messages *repo.MessageRepo, patients *repo.PatientRepo, queryLogs *repo.QueryLogRepo, index vector.Index, embedder ai.IEmbedder, generator ai.IGenerator) *QueryService {
	return &QueryService{
		chats:     chats,
		messages:  messages,
		patients:  patients,
		queryLogs: queryLogs,
		index:     index,
		embedder:  embedder,
		generator: generator,
	}
}

type Turn struct {
	UserMessage *model.ChatMessage `json:"user_message"`
	AIMessage   *model.ChatMessage `json:"ai_message"`
}

// AnswerDirect runs retrieval and generation for a one-off question without
// touching chat history; only the audit log records it.
func (s *QueryService) AnswerDirect(ctx context.Context, userID, patientID, query string) (string, []model.Source, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, "", fmt.Errorf("%w: query is required", appErr.ErrInvalid)
	}
	contextBlock, sources, err := s.retrieve(ctx, query)
	if err != nil {
		return "", nil, "", err
	}
	prompt := buildPrompt("", "", contextBlock, query)
	answer, err := s.generator.Generate(ctx, prompt, nil)
	if err != nil {
		return "", nil, "", err
	}
	logID := newID()
	if err := s.queryLogs.Create(ctx, &model.QueryLog{
		ID:         logID,
		UserID:     userID,
		PatientID:  patientID,
		QueryText:  query,
		AIResponse: answer,
		SourceDocs: sources,
		Ctime:      timeutil.NowUnix(),
	}); err != nil {
		return "", nil, "", err
	}
	return answer, sources, logID, nil
}

// Answer runs one full chat turn: closing-phrase short circuit, retrieval,
// history and patient context assembly, generation, then an atomic write of
// both message rows.
func (s *QueryService) Answer(ctx context.Context, userID, chatID, query, imageB64 string) (*Turn, error) {
	logger := logutil.GetLogger(ctx)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", appErr.ErrInvalid)
	}
	chat, err := s.chats.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	history, err := s.messages.List(ctx, chatID, historyWindow)
	if err != nil {
		return nil, err
	}
	priorUserCount, err := s.messages.CountUserMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if isClosingMessage(query) {
		logger.Debug("closing phrase detected", zap.String("chat_id", chatID))
		return s.persistTurn(ctx, chat, priorUserCount, query, imageB64, closingReply, nil)
	}

	contextBlock, sources, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	resolvedImage := imageB64
	if resolvedImage == "" {
		if prior := lastUserImage(history); prior != "" && shouldReuseImage(query) {
			logger.Debug("reusing image from previous turn", zap.String("chat_id", chatID))
			resolvedImage = prior
		}
	}
	img, err := decodeImage(resolvedImage)
	if err != nil {
		return nil, err
	}

	patientBlock := ""
	if chat.PatientID != "" {
		patient, err := s.patients.Get(ctx, userID, chat.PatientID)
		if err != nil {
			return nil, err
		}
		patientBlock = renderPatientBlock(patient)
	}

	prompt := buildPrompt(patientBlock, renderHistoryBlock(history), contextBlock, query)
	answer, err := s.generator.Generate(ctx, prompt, img)
	if err != nil {
		return nil, err
	}

	turn, err := s.persistTurn(ctx, chat, priorUserCount, query, imageB64, answer, sources)
	if err != nil {
		return nil, err
	}
	if err := s.queryLogs.Create(ctx, &model.QueryLog{
		ID:         newID(),
		UserID:     userID,
		PatientID:  chat.PatientID,
		QueryText:  query,
		AIResponse: answer,
		SourceDocs: sources,
		Ctime:      timeutil.NowUnix(),
	}); err != nil {
		logger.Warn("failed to write query audit row", zap.Error(err))
	}
	return turn, nil
}

func (s *QueryService) RecentQueries(ctx context.Context, userID string, limit int) ([]*model.QueryLog, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryLogs.ListRecent(ctx, userID, limit)
}

func (s *QueryService) PatientHistory(ctx context.Context, userID, patientID string) (*model.Patient, []*model.QueryLog, error) {
	patient, err := s.patients.Get(ctx, userID, patientID)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.queryLogs.ListByPatient(ctx, userID, patientID, 10)
	if err != nil {
		return nil, nil, err
	}
	return patient, logs, nil
}

// retrieve embeds the query and returns the prompt context block alongside
// the truncated source list for the response payload.
func (s *QueryService) retrieve(ctx context.Context, query string) (string, []model.Source, error) {
	embedding, err := s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return "", nil, err
	}
	matches, err := s.index.Query(ctx, embedding, retrievalTopK)
	if err != nil {
		return "", nil, err
	}
	var contextChunks []string
	var sources []model.Source
	for _, match := range matches {
		contextChunks = append(contextChunks, match.Text)
		sources = append(sources, model.Source{
			Text:     truncateText(match.Text, sourcePreviewMax),
			Score:    match.Score,
			Metadata: match.Metadata,
		})
	}
	return strings.Join(contextChunks, "\n\n"), sources, nil
}

func (s *QueryService) persistTurn(ctx context.Context, chat *model.Chat, priorUserCount int, query, imageB64, answer string, sources []model.Source) (*Turn, error) {
	now := timeutil.NowUnix()
	userMsg := &model.ChatMessage{
		ID:      newID(),
		ChatID:  chat.ID,
		Role:    model.RoleUser,
		Content: query,
		Image:   imageB64,
		Ctime:   now,
	}
	aiMsg := &model.ChatMessage{
		ID:      newID(),
		ChatID:  chat.ID,
		Role:    model.RoleAI,
		Content: answer,
		Sources: sources,
		Ctime:   now,
	}
	chatUpdate := map[string]interface{}{"mtime": now}
	if priorUserCount == 0 {
		chatUpdate["title"] = deriveTitle(query)
	}
	if err := s.messages.AppendTurn(ctx, chat.ID, userMsg, aiMsg, chatUpdate); err != nil {
		return nil, err
	}
	return &Turn{UserMessage: userMsg, AIMessage: aiMsg}, nil
}

// isClosingMessage flags conversation-ending messages. A phrase counts when
// the whole message matches it, when the message ends with it on a word
// boundary, or when a short message starts with it; very short messages that
// merely contain a closing keyword also count. Long sentences that happen to
// start with "thanks" are not endings.
func isClosingMessage(query string) bool {
	normalized := normalizeClosing(query)
	if normalized == "" {
		return false
	}
	tokens := strings.Fields(normalized)
	for _, phrase := range closingPhrases {
		if normalized == phrase {
			return true
		}
		if strings.HasSuffix(normalized, " "+phrase) {
			return true
		}
		if strings.HasPrefix(normalized, phrase+" ") && len(tokens) <= 4 {
			return true
		}
	}
	if len(tokens) <= 3 {
		for _, keyword := range closingKeywords {
			for _, token := range tokens {
				if token == keyword {
					return true
				}
			}
		}
	}
	return false
}

func normalizeClosing(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	var sb strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\'':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// imageFollowupKeywords signal that a follow-up question still refers to the
// previously uploaded image; imageFollowupPronouns only count as whole words.
var (
	imageFollowupKeywords = []string{"image", "picture", "photo", "x-ray", "xray", "radiograph", "scan"}
	imageFollowupPronouns = []string{"this", "that", "it"}
)

func shouldReuseImage(query string) bool {
	lower := strings.ToLower(query)
	normalized := normalizeClosing(query)
	tokens := strings.Fields(normalized)
	if len(tokens) > 0 && len(tokens) <= 4 {
		return true
	}
	for _, keyword := range imageFollowupKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	for _, token := range tokens {
		for _, pronoun := range imageFollowupPronouns {
			if token == pronoun {
				return true
			}
		}
	}
	return false
}

func lastUserImage(history []*model.ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser {
			return history[i].Image
		}
	}
	return ""
}

func decodeImage(imageB64 string) (*ai.Image, error) {
	if imageB64 == "" {
		return nil, nil
	}
	payload := imageB64
	if idx := strings.Index(payload, ";base64,"); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid image encoding: %v", appErr.ErrInvalid, err)
	}
	img := &ai.Image{MIME: http.DetectContentType(data), Data: data}
	if !strings.HasPrefix(img.MIME, "image/") {
		return nil, fmt.Errorf("%w: payload is not an image (%s)", appErr.ErrInvalid, img.MIME)
	}
	return ai.Downscale(img, imageMaxDimension)
}

func renderHistoryBlock(history []*model.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, msg := range history {
		role := "User"
		if msg.Role == model.RoleAI {
			role = "Assistant"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderPatientBlock(p *model.Patient) string {
	var sb strings.Builder
	sb.WriteString("Patient Information:\n")
	sb.WriteString("- Name: " + p.Name + "\n")
	if p.DateOfBirth != "" {
		sb.WriteString("- Date of Birth: " + p.DateOfBirth + "\n")
	}
	if p.Gender != "" {
		sb.WriteString("- Gender: " + p.Gender + "\n")
	}
	if p.MedicalHistory != "" {
		sb.WriteString("- Medical History: " + p.MedicalHistory + "\n")
	}
	if p.DentalHistory != "" {
		sb.WriteString("- Dental History: " + p.DentalHistory + "\n")
	}
	if p.Allergies != "" {
		sb.WriteString("- Allergies: " + p.Allergies + "\n")
	}
	if p.Medications != "" {
		sb.WriteString("- Medications: " + p.Medications + "\n")
	}
	if p.Summary != "" {
		sb.WriteString("- Summary: " + p.Summary + "\n")
	}
	return sb.String()
}

func buildPrompt(patientBlock, historyBlock, contextBlock, query string) string {
	var sb strings.Builder
	sb.WriteString("You are a dental assistant AI. Answer the following question based on the provided dental guidelines and clinical knowledge.\n\n")
	if patientBlock != "" {
		sb.WriteString(patientBlock)
		sb.WriteString("\n")
	}
	if historyBlock != "" {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(historyBlock)
		sb.WriteString("\n")
	}
	sb.WriteString("Dental Guidelines Context:\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nProvide a clear, concise, and clinically accurate answer. If the context doesn't contain enough information, say so. Always cite which parts of the guidelines you're referencing.")
	return sb.String()
}

func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func deriveTitle(query string) string {
	return truncateText(strings.TrimSpace(query), titleMax)
}
