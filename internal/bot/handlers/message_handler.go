package handlers

import (
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/config"
	"github.com/edgard/alarmbot/internal/conversation"
	"github.com/edgard/alarmbot/internal/text"
)

// NewMessageHandler returns the handler for every message that is not one of
// the registered commands: free text, menu buttons and media.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	buttons := deps.Config.Buttons
	return eventHandler{
		deps: deps,
		name: "message",
		classify: func(msg *models.Message) (alarm.Event, bool) {
			return ClassifyMessage(msg, buttons), true
		},
	}.Handle
}

// MatchMessage reports whether update is a message the message handler
// should take, leaving the named commands to their own handlers.
func MatchMessage(commands ...string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil || update.Message.From == nil {
			return false
		}
		name := commandName(update.Message.Text)
		for _, c := range commands {
			if name == c {
				return false
			}
		}
		return true
	}
}

// commandName returns "help" for "/help", "/help@some_bot" or "/help args".
func commandName(s string) string {
	if !strings.HasPrefix(s, "/") {
		return ""
	}
	name := s[1:]
	if i := strings.IndexAny(name, " \n\t"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name
}

// ClassifyMessage maps a message to a flow event. Menu button labels become
// their input kinds; a photo wins over a video; captions and text are
// rendered to HTML with their formatting. Content the flow cannot use, like
// stickers or documents, is reported as media with no reference so every
// stage answers it with its own prompt.
func ClassifyMessage(msg *models.Message, buttons config.ButtonsConfig) alarm.Event {
	ev := alarm.Event{Sender: senderOf(msg.From)}

	switch {
	case len(msg.Photo) > 0:
		ev.Kind = alarm.InputMedia
		largest := msg.Photo[len(msg.Photo)-1]
		ev.Media = &conversation.Media{Kind: conversation.MediaPhoto, FileID: largest.FileID}
		ev.Text = text.RenderHTML(msg.Caption, msg.CaptionEntities)
	case msg.Video != nil:
		ev.Kind = alarm.InputMedia
		ev.Media = &conversation.Media{Kind: conversation.MediaVideo, FileID: msg.Video.FileID}
		ev.Text = text.RenderHTML(msg.Caption, msg.CaptionEntities)
	case msg.Text != "":
		ev.Kind = buttonKind(msg.Text, buttons)
		ev.Text = text.RenderHTML(msg.Text, msg.Entities)
		ev.Raw = msg.Text
	default:
		ev.Kind = alarm.InputMedia
	}

	return ev
}

func buttonKind(s string, b config.ButtonsConfig) alarm.InputKind {
	switch s {
	case b.Alarm:
		return alarm.InputRequestAlarm
	case b.Help:
		return alarm.InputShowHelp
	case b.Cancel:
		return alarm.InputCancel
	case b.SkipText:
		return alarm.InputSkipText
	case b.SkipMedia:
		return alarm.InputSkipMedia
	default:
		return alarm.InputText
	}
}

func senderOf(u *models.User) alarm.Sender {
	return alarm.Sender{ID: u.ID, DisplayName: DisplayName(u)}
}

// DisplayName is "@username" when the user has one, otherwise their full name.
func DisplayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
