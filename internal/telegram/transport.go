package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/config"
)

// API is the subset of the Bot API client the transport uses. *bot.Bot
// satisfies it.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	GetMe(ctx context.Context) (*models.User, error)
}

// Transport delivers alarms and conversation replies through the Bot API.
// All messages use HTML parse mode.
type Transport struct {
	api       API
	logger    *slog.Logger
	keyboards map[alarm.Keyboard]*models.ReplyKeyboardMarkup

	mu       sync.Mutex
	username string
}

// NewTransport creates a transport whose reply keyboards use the given labels.
func NewTransport(api API, logger *slog.Logger, buttons config.ButtonsConfig) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		api:       api,
		logger:    logger.With("component", "telegram_transport"),
		keyboards: buildKeyboards(buttons),
	}
}

// SendText sends an HTML text message. Alarm messages carry no keyboard so
// a recipient's own conversation menu is left alone.
func (t *Transport) SendText(ctx context.Context, recipientID int64, text string) error {
	_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             recipientID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	})
	if err != nil {
		return fmt.Errorf("send message to %d: %w", recipientID, err)
	}
	return nil
}

// SendPhoto sends a previously uploaded photo by file ID.
func (t *Transport) SendPhoto(ctx context.Context, recipientID int64, fileID, caption string) error {
	_, err := t.api.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    recipientID,
		Photo:     &models.InputFileString{Data: fileID},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send photo to %d: %w", recipientID, err)
	}
	return nil
}

// SendVideo sends a previously uploaded video by file ID.
func (t *Transport) SendVideo(ctx context.Context, recipientID int64, fileID, caption string) error {
	_, err := t.api.SendVideo(ctx, &bot.SendVideoParams{
		ChatID:    recipientID,
		Video:     &models.InputFileString{Data: fileID},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send video to %d: %w", recipientID, err)
	}
	return nil
}

// SelfIdentity returns the bot's username. A successful lookup is cached.
func (t *Transport) SelfIdentity(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.username != "" {
		return t.username, nil
	}

	me, err := t.api.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("get bot identity: %w", err)
	}
	t.username = me.Username
	t.logger.DebugContext(ctx, "Resolved bot identity", "username", me.Username, "bot_id", me.ID)
	return t.username, nil
}

// Reply sends a conversation reply with the keyboard it asks for.
func (t *Transport) Reply(ctx context.Context, chatID int64, reply alarm.Reply) error {
	if reply.Text == "" {
		return nil
	}

	params := &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               reply.Text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}
	if kb, ok := t.keyboards[reply.Keyboard]; ok {
		params.ReplyMarkup = kb
	}

	if _, err := t.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send reply to %d: %w", chatID, err)
	}
	return nil
}

var _ alarm.Transport = (*Transport)(nil)
