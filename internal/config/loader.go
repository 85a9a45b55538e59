package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, e.g. ALARMBOT_TELEGRAM_TOKEN.
const EnvPrefix = "ALARMBOT"

// Load loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional, may be missing)
// 3. ALARMBOT_* environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Message texts, button labels and tasks are prefilled on the struct so
	// that a config file only needs to list the keys it overrides.
	cfg := &Config{
		Scheduler: SchedulerConfig{Tasks: maps.Clone(DefaultTasks)},
		Messages:  DefaultMessages,
		Buttons:   DefaultButtons,
	}

	if err := readConfig(v, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// Validate checks struct constraints on the whole configuration.
func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

func readConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Allow missing config file, everything can come from the environment
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// setDefaults registers scalar defaults so that AutomaticEnv can override them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.poll_timeout", DefaultTelegramPollTimeout)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.operation_timeout", DefaultDBOperationTimeout)

	v.SetDefault("broadcast.workers", DefaultBroadcastWorkers)
	v.SetDefault("broadcast.rate_per_sec", DefaultBroadcastRatePerSec)
	v.SetDefault("broadcast.send_timeout", DefaultBroadcastSendTimeout)
	v.SetDefault("broadcast.lookup_timeout", DefaultBroadcastLookupTimeout)

	v.SetDefault("conversation.idle_timeout", DefaultConversationIdleTimeout)
}
