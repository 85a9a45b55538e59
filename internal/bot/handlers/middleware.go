// Package handlers turns Telegram updates into alarm flow events and sends
// the flow's replies back, along with handler registration and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PrivateChatOnly drops messages that do not come from a private chat with
// the bot. Group membership is per user, so group chats are never served.
func PrivateChatOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, bot, update)
				return
			}

			if string(update.Message.Chat.Type) != "private" {
				deps.Logger.DebugContext(ctx, "Ignoring message from non-private chat",
					"middleware", "PrivateChatOnly",
					"chat_id", update.Message.Chat.ID,
					"chat_type", string(update.Message.Chat.Type))
				return
			}

			next(ctx, bot, update)
		}
	}
}
