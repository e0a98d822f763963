package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/analyzer"
	"github.com/xaenox/pocket-therapy/internal/checkin"
	"github.com/xaenox/pocket-therapy/internal/crisis"
	"github.com/xaenox/pocket-therapy/internal/recommender"
	"github.com/xaenox/pocket-therapy/internal/storage"
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Deps struct {
	Checkin      *checkin.Service
	Catalog      storage.CatalogStorage
	Analyzer     *analyzer.Analyzer
	Recommender  *recommender.Recommender
	Locator      *crisis.Locator
	DefaultLimit int
}

type Bot struct {
	api    API
	deps   Deps
	logger *zap.Logger
}

func New(token string, deps Deps, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return NewWithAPI(api, deps, logger), nil
}

// NewWithAPI wires a bot around an existing API client.
func NewWithAPI(api API, deps Deps, logger *zap.Logger) *Bot {
	if deps.DefaultLimit <= 0 {
		deps.DefaultLimit = recommender.DefaultLimit
	}
	return &Bot{api: api, deps: deps, logger: logger}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("Handler panicked",
				zap.Any("panic", p),
				zap.Int64("chat_id", message.Chat.ID))
		}
	}()

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}
	if message.From == nil {
		return
	}

	// A bare number is read as a quick check-in.
	fields := strings.Fields(message.Text)
	if len(fields) > 0 {
		if _, ok := parseMood(fields[0]); ok {
			b.recordMood(ctx, message, fields[0], strings.Join(fields[1:], " "))
			return
		}
	}
	b.sendMessage(message.Chat.ID, msgUnknownText)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.sendMessage(message.Chat.ID, msgWelcome)
	case "help":
		b.sendMessage(message.Chat.ID, msgHelp)
	case "mood":
		b.handleMood(ctx, message)
	case "insights":
		b.handleInsights(ctx, message)
	case "exercise":
		b.handleExercise(ctx, message)
	case "sos":
		b.handleSOS(ctx, message)
	case "done":
		b.handleDone(ctx, message)
	case "history":
		b.handleHistory(ctx, message)
	case "contact":
		b.handleContact(ctx, message)
	case "favorite":
		b.handleFavorite(ctx, message)
	case "avoid":
		b.handleAvoid(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, msgUnknownCommand)
	}
}

// escapeMarkdown escapes special characters for MarkdownV2.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send markdown message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
