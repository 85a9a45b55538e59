package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultTelegramPollTimeout = 30 * time.Second

	DefaultDBPath             = "alarm_bot.db"
	DefaultDBOperationTimeout = 5 * time.Second

	DefaultBroadcastWorkers       = 4
	DefaultBroadcastRatePerSec    = 25 // stays under Telegram's global 30 msg/s limit
	DefaultBroadcastSendTimeout   = 15 * time.Second
	DefaultBroadcastLookupTimeout = 5 * time.Second

	DefaultConversationIdleTimeout = time.Hour
)

// Task names understood by the scheduler.
const (
	TaskSQLMaintenance = "sql_maintenance"
	TaskConversationGC = "conversation_gc"
)

// DefaultTasks are the scheduled tasks enabled out of the box.
var DefaultTasks = map[string]TaskConfig{
	TaskSQLMaintenance: {Enabled: true, Schedule: "0 0 4 * * *"},
	TaskConversationGC: {Enabled: true, Schedule: "0 */10 * * * *"},
}

// DefaultMessages are the built-in user-facing texts.
var DefaultMessages = MessagesConfig{
	Welcome: "🚨 <b>Alarm relay bot</b>\n\nUse the menu buttons or /help for instructions.",
	Help: "🔔 <b>Alarm bot help</b>\n\n" +
		"📌 Set or change your <b>group number</b> with\n👉 <code>/change_grp</code>\n\n" +
		"🔢 The group number is a nine-digit code given to you by whoever shared this bot.\n\n" +
		"📡 Alarms are delivered only to members of your group.\n\n" +
		"🔷 <b>Your group number:</b> <code>{group}</code>\n\n" +
		"👥 To add someone to your alarms, send them:\n" +
		"1. The bot link @{bot}\n" +
		"2. The group number <code>{group}</code>\n\n" +
		"🚨 Use the menu button to send an alarm.",
	GroupNotSet:       "not set",
	ChangeGroupPrompt: "🔢 Enter the new 9-digit group code:",
	InvalidGroupCode:  "⚠️ The group code must be exactly 9 digits. Try again or press Cancel.",
	GroupChanged:      "✅ Group changed to <code>{group}</code>!",
	GroupChangeError:  "⚠️ Could not change the group. Please try again later.",
	NoGroupSet:        "⚠️ Set your group number first with /change_grp",
	AlarmTextPrompt:   "✏️ Enter the alarm message or press «No text»:",
	AlarmTextInvalid:  "✏️ Send the alarm text as a message or press «No text».",
	AlarmMediaPrompt:  "🖼️ Attach a photo or video, or press «No media»:",
	AlarmMediaInvalid: "🖼️ Send a photo or video, or press «No media».",
	AlarmHeader:       "🚨 <b>ALARM from {sender} (group {group})!</b>",
	AlarmSent:         "✅ Alarm sent to {sent}/{total} group members!",
	NoGroup:           "⚠️ Error: group not found!",
	NoRecipients:      "There are no other users in your group!",
	DispatchError:     "⚠️ Sending failed. Please try again later.",
	GeneralError:      "❌ An error occurred. Please try again later.",
	Cancelled:         "Action cancelled.",
	UseMenu:           "Use the menu buttons or /help for instructions.",
}

// DefaultButtons are the built-in reply keyboard labels.
var DefaultButtons = ButtonsConfig{
	Alarm:     "🚨 Send alarm",
	Help:      "ℹ️ Help",
	SkipText:  "📝 No text",
	SkipMedia: "🖼 No media",
	Cancel:    "❌ Cancel",
}
