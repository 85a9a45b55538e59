// Package config provides configuration loading, validation, and defaults
// for the alarm bot. Values come from a YAML file, ALARMBOT_* environment
// variables and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration marks every error returned by Load.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration for all components.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Broadcast    BroadcastConfig    `mapstructure:"broadcast"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Messages     MessagesConfig     `mapstructure:"messages"`
	Buttons      ButtonsConfig      `mapstructure:"buttons"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the Bot API settings.
type TelegramConfig struct {
	Token       string        `mapstructure:"token"        validate:"required"`
	PollTimeout time.Duration `mapstructure:"poll_timeout" validate:"min=1s,max=2m"`
}

// DatabaseConfig holds the user registry storage settings.
type DatabaseConfig struct {
	Path             string        `mapstructure:"path"              validate:"required"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"min=100ms,max=1m"`
}

// BroadcastConfig tunes the alarm fan-out.
type BroadcastConfig struct {
	// Workers bounds how many deliveries run at once.
	Workers int `mapstructure:"workers" validate:"min=1,max=64"`
	// RatePerSec caps outgoing sends; Telegram allows about 30 messages per second per bot.
	RatePerSec  int           `mapstructure:"rate_per_sec" validate:"min=1,max=30"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"min=1s,max=5m"`
	// LookupTimeout bounds each registry read made while resolving recipients.
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" validate:"min=100ms,max=1m"`
}

// ConversationConfig controls in-memory conversation retention.
type ConversationConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=1m"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig describes one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-facing text. Messages are sent with HTML
// parse mode. Placeholders in curly braces are substituted at send time.
type MessagesConfig struct {
	Welcome           string `mapstructure:"welcome"             validate:"required"`
	Help              string `mapstructure:"help"                validate:"required"` // {group}, {bot}
	GroupNotSet       string `mapstructure:"group_not_set"       validate:"required"`
	ChangeGroupPrompt string `mapstructure:"change_group_prompt" validate:"required"`
	InvalidGroupCode  string `mapstructure:"invalid_group_code"  validate:"required"`
	GroupChanged      string `mapstructure:"group_changed"       validate:"required"` // {group}
	GroupChangeError  string `mapstructure:"group_change_error"  validate:"required"`
	NoGroupSet        string `mapstructure:"no_group_set"        validate:"required"`
	AlarmTextPrompt   string `mapstructure:"alarm_text_prompt"   validate:"required"`
	AlarmTextInvalid  string `mapstructure:"alarm_text_invalid"  validate:"required"`
	AlarmMediaPrompt  string `mapstructure:"alarm_media_prompt"  validate:"required"`
	AlarmMediaInvalid string `mapstructure:"alarm_media_invalid" validate:"required"`
	AlarmHeader       string `mapstructure:"alarm_header"        validate:"required"` // {sender}, {group}
	AlarmSent         string `mapstructure:"alarm_sent"          validate:"required"` // {sent}, {total}
	NoGroup           string `mapstructure:"no_group"            validate:"required"`
	NoRecipients      string `mapstructure:"no_recipients"       validate:"required"`
	DispatchError     string `mapstructure:"dispatch_error"      validate:"required"`
	GeneralError      string `mapstructure:"general_error"       validate:"required"`
	Cancelled         string `mapstructure:"cancelled"           validate:"required"`
	UseMenu           string `mapstructure:"use_menu"            validate:"required"`
}

// ButtonsConfig holds reply keyboard labels. Incoming text equal to a label
// is treated as the button press.
type ButtonsConfig struct {
	Alarm     string `mapstructure:"alarm"      validate:"required"`
	Help      string `mapstructure:"help"       validate:"required"`
	SkipText  string `mapstructure:"skip_text"  validate:"required"`
	SkipMedia string `mapstructure:"skip_media" validate:"required"`
	Cancel    string `mapstructure:"cancel"     validate:"required"`
}
