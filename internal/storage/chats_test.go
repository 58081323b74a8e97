package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *ChatStorage {
	t.Helper()

	s, err := NewChatStorage(filepath.Join(t.TempDir(), "data", "bot.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestChatStorage_SaveListRemove(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveChat(ctx, 100, "Handover"))
	require.NoError(t, s.SaveChat(ctx, 200, "CTO"))
	require.NoError(t, s.SaveChat(ctx, 100, "Handover team"))

	ids, err := s.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, ids)

	chats, err := s.GetChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "Handover team", chats[0].Title)

	require.NoError(t, s.RemoveChat(ctx, 100))
	ids, err = s.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{200}, ids)
}

func TestChatStorage_UpdateChatID(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveChat(ctx, -100, "Group"))
	require.NoError(t, s.UpdateChatID(ctx, -100, -100200))

	ids, err := s.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-100200}, ids)
}

func TestChatStorage_EmptyList(t *testing.T) {
	s := newTestStorage(t)

	chats, err := s.GetChats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestNewChatStorage_RequiresPath(t *testing.T) {
	_, err := NewChatStorage("", nil)
	assert.Error(t, err)
}
