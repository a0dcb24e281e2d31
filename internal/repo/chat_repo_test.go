package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbhavake/dentalgpt/internal/model"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/timeutil"
	"github.com/kbhavake/dentalgpt/internal/repo"
	"github.com/kbhavake/dentalgpt/internal/testutil"
)

func TestChatRepoCRUDAndIsolation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chats := repo.NewChatRepo(db)
	now := timeutil.NowUnix()
	chat := &model.Chat{
		ID:     "chat-crud-1",
		UserID: "owner-1",
		Title:  "New Chat",
		Ctime:  now,
		Mtime:  now,
	}
	require.NoError(t, chats.Create(context.Background(), chat))

	fetched, err := chats.Get(context.Background(), "owner-1", "chat-crud-1")
	require.NoError(t, err)
	require.Equal(t, "New Chat", fetched.Title)

	// a different user must not see the chat
	_, err = chats.Get(context.Background(), "owner-2", "chat-crud-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	err = chats.Update(context.Background(), "owner-2", "chat-crud-1", map[string]interface{}{"title": "stolen"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
	err = chats.Delete(context.Background(), "owner-2", "chat-crud-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, chats.Update(context.Background(), "owner-1", "chat-crud-1", map[string]interface{}{
		"title":    "Renamed",
		"favorite": 1,
		"mtime":    timeutil.NowUnix(),
	}))
	fetched, err = chats.Get(context.Background(), "owner-1", "chat-crud-1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", fetched.Title)
	require.Equal(t, 1, fetched.Favorite)

	require.NoError(t, chats.Delete(context.Background(), "owner-1", "chat-crud-1"))
	_, err = chats.Get(context.Background(), "owner-1", "chat-crud-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestMessageRepoAppendTurnRoundTrip(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chats := repo.NewChatRepo(db)
	messages := repo.NewMessageRepo(db)
	now := timeutil.NowUnix()
	require.NoError(t, chats.Create(context.Background(), &model.Chat{
		ID:     "chat-turn-1",
		UserID: "owner-1",
		Title:  "New Chat",
		Ctime:  now,
		Mtime:  now,
	}))

	imageB64 := "aGVsbG8gd29ybGQ="
	userMsg := &model.ChatMessage{
		ID:      "msg-u1",
		ChatID:  "chat-turn-1",
		Role:    model.RoleUser,
		Content: "What is the protocol for root canal?",
		Image:   imageB64,
		Ctime:   now,
	}
	aiMsg := &model.ChatMessage{
		ID:      "msg-a1",
		ChatID:  "chat-turn-1",
		Role:    model.RoleAI,
		Content: "Standard protocol is ...",
		Sources: []model.Source{
			{Text: "chunk text", Score: 0.92, Metadata: map[string]interface{}{"title": "endo guide"}},
		},
		Ctime: now,
	}
	require.NoError(t, messages.AppendTurn(context.Background(), "chat-turn-1", userMsg, aiMsg, map[string]interface{}{
		"title": "What is the protocol for root",
		"mtime": now + 1,
	}))

	listed, err := messages.List(context.Background(), "chat-turn-1", 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, model.RoleUser, listed[0].Role)
	require.Equal(t, "What is the protocol for root canal?", listed[0].Content)
	require.Equal(t, imageB64, listed[0].Image)
	require.Equal(t, model.RoleAI, listed[1].Role)
	require.Len(t, listed[1].Sources, 1)
	require.Equal(t, "chunk text", listed[1].Sources[0].Text)

	chat, err := chats.Get(context.Background(), "owner-1", "chat-turn-1")
	require.NoError(t, err)
	require.Equal(t, "What is the protocol for root", chat.Title)

	count, err := messages.CountUserMessages(context.Background(), "chat-turn-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// chat deletion removes messages too
	require.NoError(t, chats.Delete(context.Background(), "owner-1", "chat-turn-1"))
	listed, err = messages.List(context.Background(), "chat-turn-1", 0)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestMessageRepoSameSecondTurnOrder(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chats := repo.NewChatRepo(db)
	messages := repo.NewMessageRepo(db)
	now := timeutil.NowUnix()
	require.NoError(t, chats.Create(context.Background(), &model.Chat{
		ID:     "chat-order-1",
		UserID: "owner-1",
		Title:  "t",
		Ctime:  now,
		Mtime:  now,
	}))

	// both rows of each turn share a ctime, and the AI ids sort before the
	// user ids, so any id/ctime-based ordering would invert the pairs
	for i := 0; i < 3; i++ {
		suffix := string(rune('1' + i))
		userMsg := &model.ChatMessage{
			ID:      "zz-user-" + suffix,
			ChatID:  "chat-order-1",
			Role:    model.RoleUser,
			Content: "question " + suffix,
			Ctime:   now,
		}
		aiMsg := &model.ChatMessage{
			ID:      "aa-ai-" + suffix,
			ChatID:  "chat-order-1",
			Role:    model.RoleAI,
			Content: "answer " + suffix,
			Ctime:   now,
		}
		require.NoError(t, messages.AppendTurn(context.Background(), "chat-order-1", userMsg, aiMsg, nil))
	}

	listed, err := messages.List(context.Background(), "chat-order-1", 0)
	require.NoError(t, err)
	require.Len(t, listed, 6)
	for i := 0; i < 3; i++ {
		require.Equal(t, model.RoleUser, listed[i*2].Role)
		require.Equal(t, "question "+string(rune('1'+i)), listed[i*2].Content)
		require.Equal(t, model.RoleAI, listed[i*2+1].Role)
		require.Equal(t, "answer "+string(rune('1'+i)), listed[i*2+1].Content)
	}

	require.NoError(t, chats.Delete(context.Background(), "owner-1", "chat-order-1"))
}

func TestMessageRepoListTailLimit(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chats := repo.NewChatRepo(db)
	messages := repo.NewMessageRepo(db)
	now := timeutil.NowUnix()
	require.NoError(t, chats.Create(context.Background(), &model.Chat{
		ID:     "chat-limit-1",
		UserID: "owner-1",
		Title:  "t",
		Ctime:  now,
		Mtime:  now,
	}))
	for i := 0; i < 15; i++ {
		require.NoError(t, messages.Create(context.Background(), &model.ChatMessage{
			ID:      "msg-" + string(rune('a'+i)),
			ChatID:  "chat-limit-1",
			Role:    model.RoleUser,
			Content: "m",
			Ctime:   now + int64(i),
		}))
	}

	listed, err := messages.List(context.Background(), "chat-limit-1", 10)
	require.NoError(t, err)
	require.Len(t, listed, 10)
	// oldest-first ordering with only the most recent ten kept
	require.Equal(t, now+5, listed[0].Ctime)
	require.Equal(t, now+14, listed[9].Ctime)

	require.NoError(t, chats.Delete(context.Background(), "owner-1", "chat-limit-1"))
}
