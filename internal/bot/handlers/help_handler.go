package handlers

import (
	"github.com/go-telegram/bot"

	"github.com/edgard/alarmbot/internal/alarm"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return commandHandler(deps, "help", alarm.InputShowHelp)
}

// NewChangeGroupHandler returns a handler for the /change_grp command.
func NewChangeGroupHandler(deps HandlerDeps) bot.HandlerFunc {
	return commandHandler(deps, "change_grp", alarm.InputChangeGroup)
}
