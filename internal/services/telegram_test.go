package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
)

type fakeBot struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	updates chan tgbotapi.Update
	stopped bool
	failFor map[int64]error
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 8), failFor: map[int64]error{}}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if doc, ok := c.(tgbotapi.DocumentConfig); ok {
		if err := b.failFor[doc.ChatID]; err != nil {
			return tgbotapi.Message{}, err
		}
	}
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (b *fakeBot) documents() []tgbotapi.DocumentConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range b.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

type memChats struct {
	mu    sync.Mutex
	chats map[int64]string
}

func newMemChats(ids ...int64) *memChats {
	m := &memChats{chats: map[int64]string{}}
	for _, id := range ids {
		m.chats[id] = "chat"
	}
	return m
}

func (m *memChats) SaveChat(_ context.Context, chatID int64, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[chatID] = title
	return nil
}

func (m *memChats) RemoveChat(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats, chatID)
	return nil
}

func (m *memChats) ListChats(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id := range m.chats {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memChats) UpdateChatID(_ context.Context, oldChatID, newChatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[newChatID] = m.chats[oldChatID]
	delete(m.chats, oldChatID)
	return nil
}

func (m *memChats) has(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.chats[id]
	return ok
}

func command(chatID int64, text string, cmdLen int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID, Title: "Handover"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func tempReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0o644))
	return path
}

func TestTelegram_SubscribeAndUnsubscribe(t *testing.T) {
	bot := newFakeBot()
	chats := newMemChats()
	svc := newTelegramBot(bot, TelegramOpts{}, chats, nil, discardLogger())

	svc.handleUpdate(context.Background(), command(100, "/start", 6))
	assert.True(t, chats.has(100))

	svc.handleUpdate(context.Background(), command(100, "/stop", 5))
	assert.False(t, chats.has(100))

	msgs := bot.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Subscribed")
	assert.Contains(t, msgs[1].Text, "Unsubscribed")
}

func TestTelegram_BoardCommand(t *testing.T) {
	bot := newFakeBot()
	boards, err := NewBoardService(&fakeFetcher{records: handoverRecords()}, board.DefaultOptions(), discardLogger())
	require.NoError(t, err)
	svc := newTelegramBot(bot, TelegramOpts{}, nil, boards, discardLogger())

	svc.handleUpdate(context.Background(), command(5, "/board 7", 6))
	svc.handleUpdate(context.Background(), command(5, "/board abc", 6))

	msgs := bot.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, tgbotapi.ModeHTML, msgs[0].ParseMode)
	assert.Contains(t, msgs[0].Text, "<pre>")
	assert.Contains(t, msgs[0].Text, "Week 1")
	assert.NotContains(t, msgs[0].Text, "\x1b[")
	assert.Equal(t, "Usage: /board <project_id>", msgs[1].Text)
}

func TestTelegram_ChatMigration(t *testing.T) {
	chats := newMemChats(-100)
	svc := newTelegramBot(newFakeBot(), TelegramOpts{}, chats, nil, discardLogger())

	svc.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:            &tgbotapi.Chat{ID: -100},
		MigrateToChatID: -100200,
	}})

	assert.False(t, chats.has(-100))
	assert.True(t, chats.has(-100200))
}

func TestTelegram_BroadcastDedupesRecipients(t *testing.T) {
	bot := newFakeBot()
	svc := newTelegramBot(bot, TelegramOpts{ChatID: 1, Message: "Daily board"}, newMemChats(1, 2, 3), nil, discardLogger())

	sent, err := svc.Broadcast(context.Background(), tempReport(t))

	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	docs := bot.documents()
	require.Len(t, docs, 3)
	assert.Equal(t, "Daily board", docs[0].Caption)
}

func TestTelegram_BroadcastMigratesChat(t *testing.T) {
	bot := newFakeBot()
	bot.failFor[2] = &tgbotapi.Error{Message: "group chat was upgraded", ResponseParameters: tgbotapi.ResponseParameters{MigrateToChatID: 20}}
	chats := newMemChats(2)
	svc := newTelegramBot(bot, TelegramOpts{}, chats, nil, discardLogger())

	sent, err := svc.Broadcast(context.Background(), tempReport(t))

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, chats.has(20))
	assert.Equal(t, int64(20), bot.documents()[0].ChatID)
}

func TestTelegram_BroadcastWithoutRecipients(t *testing.T) {
	svc := newTelegramBot(newFakeBot(), TelegramOpts{}, nil, nil, discardLogger())

	_, err := svc.Broadcast(context.Background(), tempReport(t))
	assert.Error(t, err)
}

func TestTelegram_SendFileMissing(t *testing.T) {
	svc := newTelegramBot(newFakeBot(), TelegramOpts{}, nil, nil, discardLogger())

	err := svc.SendFile(context.Background(), 1, filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTelegram_StartStopsOnCancel(t *testing.T) {
	bot := newFakeBot()
	chats := newMemChats()
	svc := newTelegramBot(bot, TelegramOpts{}, chats, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	bot.updates <- command(7, "/start", 6)
	require.Eventually(t, func() bool { return chats.has(7) }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.True(t, bot.stopped)
}

func TestNewTelegramBot_UsesConfiguredEndpoint(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Board","username":"board_bot"}}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := NewTelegramBot(TelegramOpts{Token: "1:abc", APIEndpoint: srv.URL + "/bot%s/%s"}, nil, nil, discardLogger())

	require.NoError(t, err)
	require.NotNil(t, svc)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/bot1:abc/getMe"}, paths)
}
