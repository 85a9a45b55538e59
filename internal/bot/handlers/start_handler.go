package handlers

import (
	"github.com/go-telegram/bot"

	"github.com/edgard/alarmbot/internal/alarm"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return commandHandler(deps, "start", alarm.InputStartSession)
}
