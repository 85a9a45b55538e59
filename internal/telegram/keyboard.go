package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/config"
)

func buildKeyboards(b config.ButtonsConfig) map[alarm.Keyboard]*models.ReplyKeyboardMarkup {
	return map[alarm.Keyboard]*models.ReplyKeyboardMarkup{
		alarm.KeyboardMain:      keyboard([]string{b.Alarm}, []string{b.Help}),
		alarm.KeyboardCancel:    keyboard([]string{b.Cancel}),
		alarm.KeyboardTextStep:  keyboard([]string{b.SkipText}, []string{b.Cancel}),
		alarm.KeyboardMediaStep: keyboard([]string{b.SkipMedia}, []string{b.Cancel}),
	}
}

func keyboard(rows ...[]string) *models.ReplyKeyboardMarkup {
	kb := make([][]models.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, models.KeyboardButton{Text: label})
		}
		kb = append(kb, buttons)
	}
	return &models.ReplyKeyboardMarkup{Keyboard: kb, ResizeKeyboard: true}
}
