// Package telegram wires the alarm relay to the Telegram Bot API: client
// construction, handler registration and the outbound transport.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/alarmbot/internal/bot/handlers"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}

// applyMiddleware wraps a handler with mw; the first middleware is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers the command handlers and publishes their
// descriptions as the bot's command menu.
func RegisterHandlers(ctx context.Context, b *bot.Bot, logger *slog.Logger, registered []handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registered) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	commands := make([]models.BotCommand, 0, len(registered))
	for _, h := range registered {
		if h.Handler == nil {
			log.Warn("Skipping registration for nil handler", "pattern", h.Pattern)
			continue
		}

		handler := applyMiddleware(h.Handler, h.Middleware)
		if h.MatchFunc != nil {
			b.RegisterHandlerMatchFunc(h.MatchFunc, handler)
		} else {
			b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, handler)
		}
		log.Debug("Registered handler", "pattern", h.Pattern, "match_type", h.MatchType, "middleware_count", len(h.Middleware))

		if h.Description != "" {
			commands = append(commands, models.BotCommand{Command: h.Pattern, Description: h.Description})
		}
	}

	if len(commands) > 0 {
		if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
			// The menu is cosmetic; commands still work without it.
			log.Warn("Failed to publish bot commands", "error", err)
		}
	}

	log.Info("Registered Telegram handlers", "count", len(registered), "commands", len(commands))
	return nil
}
