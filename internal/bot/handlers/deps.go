package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/config"
)

// Flow runs one classified event through the conversation state machine.
type Flow interface {
	Handle(ctx context.Context, ev alarm.Event) alarm.Reply
}

// Replier shows a flow reply to the user.
type Replier interface {
	Reply(ctx context.Context, chatID int64, reply alarm.Reply) error
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Flow    Flow
	Replier Replier
}
