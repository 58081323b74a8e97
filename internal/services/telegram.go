package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DevN0mad/OpenProjectBoard/internal/board"
)

// Ограничение Telegram на длину сообщения с запасом под разметку.
const maxMessageRunes = 3800

const helpText = "Commands:\n" +
	"/start - subscribe this chat to board reports\n" +
	"/stop - unsubscribe this chat\n" +
	"/board <project_id> - show the project board"

// TelegramOpts параметры необходимые для инициализации сервиса TelegramBotService.
type TelegramOpts struct {
	Token   string `yaml:"token" mapstructure:"token" validate:"required"`
	ChatID  int64  `yaml:"chat_id" mapstructure:"chat_id"`
	Message string `yaml:"message" mapstructure:"message"`
	// APIEndpoint адрес Bot API в формате tgbotapi.APIEndpoint ("<url>/bot%s/%s"),
	// например для собственного сервера telegram-bot-api. Пустой адрес означает api.telegram.org.
	APIEndpoint string `yaml:"api_endpoint" mapstructure:"api_endpoint"`
}

// ChatStore хранилище подписанных чатов.
type ChatStore interface {
	SaveChat(ctx context.Context, chatID int64, title string) error
	RemoveChat(ctx context.Context, chatID int64) error
	ListChats(ctx context.Context) ([]int64, error)
	UpdateChatID(ctx context.Context, oldChatID, newChatID int64) error
}

// botAPI часть tgbotapi.BotAPI, которой пользуется сервис.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramBotService сервис предназначенный для взаимодействия с telegram.
type TelegramBotService struct {
	opts     TelegramOpts
	logger   *slog.Logger
	bot      botAPI
	chats    ChatStore
	boards   BoardBuilder
	renderer *board.Renderer
}

// NewTelegramBot создает экземпляр сервиса для работы с telegram ботом.
// chats и boards необязательны: без них не работают подписки и команда /board.
func NewTelegramBot(opts TelegramOpts, chats ChatStore, boards BoardBuilder, logger *slog.Logger) (*TelegramBotService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	endpoint := opts.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(opts.Token, endpoint)
	if err != nil {
		logger.Error("Failed to create Telegram bot", "error", err)
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	logger.Info("Telegram bot created successfully",
		"bot_user", bot.Self.UserName,
		"chat_id", opts.ChatID,
	)
	return newTelegramBot(bot, opts, chats, boards, logger), nil
}

func newTelegramBot(bot botAPI, opts TelegramOpts, chats ChatStore, boards BoardBuilder, logger *slog.Logger) *TelegramBotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramBotService{
		opts:     opts,
		logger:   logger,
		bot:      bot,
		chats:    chats,
		boards:   boards,
		renderer: board.PlainRenderer(),
	}
}

// Start обрабатывает входящие команды до отмены контекста.
func (s *TelegramBotService) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.bot.GetUpdatesChan(u)

	s.logger.Info("Telegram bot listening for updates")
	for {
		select {
		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			s.logger.Info("Telegram bot stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				s.logger.Info("Telegram updates channel closed")
				return
			}
			s.handleUpdate(ctx, upd)
		}
	}
}

func (s *TelegramBotService) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.MigrateToChatID != 0 && s.chats != nil {
		if err := s.chats.UpdateChatID(ctx, msg.Chat.ID, msg.MigrateToChatID); err != nil {
			s.logger.Error("Failed to migrate chat", "chat_id", msg.Chat.ID, "new_chat_id", msg.MigrateToChatID, "error", err)
		}
		return
	}

	if !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	s.logger.Debug("Command received", "command", msg.Command(), "chat_id", chatID)

	switch msg.Command() {
	case "start":
		s.reply(chatID, s.subscribe(ctx, msg.Chat))
	case "stop":
		s.reply(chatID, s.unsubscribe(ctx, chatID))
	case "board":
		s.replyBoard(ctx, chatID, msg.CommandArguments())
	default:
		s.reply(chatID, helpText)
	}
}

func (s *TelegramBotService) subscribe(ctx context.Context, chat *tgbotapi.Chat) string {
	if s.chats == nil {
		return "Subscriptions are disabled."
	}
	if err := s.chats.SaveChat(ctx, chat.ID, chatTitle(chat)); err != nil {
		s.logger.Error("Failed to subscribe chat", "chat_id", chat.ID, "error", err)
		return "Failed to subscribe, try again later."
	}
	return "Subscribed to board reports.\n\n" + helpText
}

func (s *TelegramBotService) unsubscribe(ctx context.Context, chatID int64) string {
	if s.chats == nil {
		return "Subscriptions are disabled."
	}
	if err := s.chats.RemoveChat(ctx, chatID); err != nil {
		s.logger.Error("Failed to unsubscribe chat", "chat_id", chatID, "error", err)
		return "Failed to unsubscribe, try again later."
	}
	return "Unsubscribed from board reports."
}

func (s *TelegramBotService) replyBoard(ctx context.Context, chatID int64, args string) {
	if s.boards == nil {
		s.reply(chatID, "Board is not available.")
		return
	}

	projectID, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || projectID <= 0 {
		s.reply(chatID, "Usage: /board <project_id>")
		return
	}

	view, err := s.boards.Build(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to build board", "project_id", projectID, "error", err)
		s.reply(chatID, fmt.Sprintf("Failed to build board for project %d.", projectID))
		return
	}

	text := board.Truncate(s.renderer.Render(view.Organization, view.Board, view.Summary), maxMessageRunes)
	msg := tgbotapi.NewMessage(chatID, "<pre>"+html.EscapeString(text)+"</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		s.logger.Error("Failed to send board", "chat_id", chatID, "error", err)
	}
}

func (s *TelegramBotService) reply(chatID int64, text string) {
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		s.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// SendFile отправляет файл по переданному пути в telegram чат.
func (s *TelegramBotService) SendFile(ctx context.Context, chatID int64, path string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			s.logger.Error("File not found", "path", path, "error", err)
			return fmt.Errorf("file not found at %q: %w", path, err)
		}
		s.logger.Error("Failed to access file", "path", path, "error", err)
		return fmt.Errorf("access file at %q: %w", path, err)
	}

	msg := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	msg.Caption = s.opts.Message

	if _, err := s.bot.Send(msg); err != nil {
		s.logger.Error("Failed to send file",
			"path", path,
			"chat_id", chatID,
			"error", err)
		return fmt.Errorf("send file: %w", err)
	}

	s.logger.Info("File sent successfully",
		"path", path,
		"chat_id", chatID)
	return nil
}

// Broadcast отправляет файл в настроенный чат и во все подписанные чаты.
// Возвращает число чатов, куда файл доставлен.
func (s *TelegramBotService) Broadcast(ctx context.Context, path string) (int, error) {
	recipients, err := s.recipients(ctx)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, fmt.Errorf("no telegram recipients configured")
	}

	var (
		sent int
		errs []error
	)
	for _, chatID := range recipients {
		err := s.SendFile(ctx, chatID, path)

		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.MigrateToChatID != 0 && s.chats != nil {
			s.logger.Info("Chat migrated, resending", "chat_id", chatID, "new_chat_id", tgErr.MigrateToChatID)
			if uerr := s.chats.UpdateChatID(ctx, chatID, tgErr.MigrateToChatID); uerr != nil {
				s.logger.Error("Failed to migrate chat", "chat_id", chatID, "error", uerr)
			}
			err = s.SendFile(ctx, tgErr.MigrateToChatID, path)
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		sent++
	}

	s.logger.Info("Broadcast finished", "path", path, "sent", sent, "failed", len(errs))
	return sent, errors.Join(errs...)
}

func (s *TelegramBotService) recipients(ctx context.Context) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]bool)
	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	add(s.opts.ChatID)
	if s.chats != nil {
		stored, err := s.chats.ListChats(ctx)
		if err != nil {
			return nil, fmt.Errorf("list chats: %w", err)
		}
		for _, id := range stored {
			add(id)
		}
	}
	return ids, nil
}

func chatTitle(chat *tgbotapi.Chat) string {
	switch {
	case chat.Title != "":
		return chat.Title
	case chat.UserName != "":
		return "@" + chat.UserName
	default:
		return strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	}
}
