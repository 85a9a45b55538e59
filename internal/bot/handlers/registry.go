package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes a command handler, its menu description and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Description string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	// MatchFunc, when set, replaces Pattern and MatchType.
	MatchFunc tgbot.MatchFunc
}

// RegisterAllCommands returns the bot's command handlers in menu order,
// followed by the message handler that takes every other message.
func RegisterAllCommands(deps HandlerDeps) []RegisteredHandler {
	private := []tgbot.Middleware{PrivateChatOnly(deps)}

	commands := []RegisteredHandler{
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "start",
			Description: "Start the bot",
			Handler:     NewStartHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  private,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "help",
			Description: "How alarms and groups work",
			Handler:     NewHelpHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  private,
		},
		{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "change_grp",
			Description: "Set or change your group number",
			Handler:     NewChangeGroupHandler(deps),
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  private,
		},
	}

	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.Pattern)
	}

	return append(commands, RegisteredHandler{
		Pattern:    "message",
		Handler:    NewMessageHandler(deps),
		Middleware: private,
		MatchFunc:  MatchMessage(names...),
	})
}
