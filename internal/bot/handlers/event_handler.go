package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/alarmbot/internal/alarm"
)

// classifier turns a message into a flow event; false means ignore it.
type classifier func(msg *models.Message) (alarm.Event, bool)

// eventHandler feeds classified messages to the flow and sends the reply.
type eventHandler struct {
	deps     HandlerDeps
	name     string
	classify classifier
}

func (h eventHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	ev, ok := h.classify(msg)
	if !ok {
		log.DebugContext(ctx, "Ignoring unclassifiable message", "update_id", update.ID)
		return
	}

	reply := h.deps.Flow.Handle(ctx, ev)

	if err := h.deps.Replier.Reply(ctx, msg.Chat.ID, reply); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", msg.Chat.ID, "input", ev.Kind.String())
		return
	}
	log.DebugContext(ctx, "Sent reply", "chat_id", msg.Chat.ID, "input", ev.Kind.String())
}

// commandHandler returns a handler that maps a command to a fixed input kind.
func commandHandler(deps HandlerDeps, name string, kind alarm.InputKind) bot.HandlerFunc {
	return eventHandler{
		deps: deps,
		name: name,
		classify: func(msg *models.Message) (alarm.Event, bool) {
			return alarm.Event{
				Kind:   kind,
				Sender: senderOf(msg.From),
				Text:   msg.Text,
				Raw:    msg.Text,
			}, true
		},
	}.Handle
}

// NewIgnoreHandler logs updates no other handler takes, such as edited
// messages or callback queries.
func NewIgnoreHandler(logger *slog.Logger) bot.HandlerFunc {
	log := logger.With("handler", "default")
	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		log.DebugContext(ctx, "Ignoring unhandled update", "update_id", update.ID)
	}
}
