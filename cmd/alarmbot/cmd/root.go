// Package cmd implements the alarmbot command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/alarmbot/internal/alarm"
	"github.com/edgard/alarmbot/internal/bot"
	"github.com/edgard/alarmbot/internal/bot/handlers"
	"github.com/edgard/alarmbot/internal/bot/tasks"
	"github.com/edgard/alarmbot/internal/config"
	"github.com/edgard/alarmbot/internal/conversation"
	"github.com/edgard/alarmbot/internal/database"
	"github.com/edgard/alarmbot/internal/logger"
	"github.com/edgard/alarmbot/internal/telegram"
	"github.com/edgard/alarmbot/internal/version"
)

const defaultConfigPath = "./config.yaml"

var (
	// configPath to the configuration YAML file.
	configPath string

	rootCmd = &cobra.Command{
		Use:           "alarmbot",
		Short:         "Telegram bot that relays alarms to everyone in your group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx)
		},
	}
)

// Execute runs the CLI and exits with a non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("alarmbot failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // cobra wiring
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")
	rootCmd.AddCommand(migrateCmd)
}

// setup loads configuration and installs the default logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration from %s: %w", configPath, err)
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON, "version", version.Version)
	return cfg, log, nil
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.OperationTimeout)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Error("Database is not reachable", "error", err)
		return err
	}

	states := conversation.NewStore()

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewIgnoreHandler(log)),
		tgbot.WithHTTPClient(cfg.Telegram.PollTimeout, telegram.NewHTTPClient(cfg.Telegram.PollTimeout)),
	)
	if err != nil {
		return err
	}

	transport := telegram.NewTransport(tg, log, cfg.Buttons)
	botName, err := transport.SelfIdentity(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return err
	}
	log.Info("Retrieved bot info", "bot_username", botName)

	dispatcher := alarm.NewDispatcher(log, store, transport, cfg.Broadcast, cfg.Messages.AlarmHeader)
	flow := alarm.NewFlow(alarm.FlowDeps{
		Logger:     log,
		States:     states,
		Registry:   store,
		Transport:  transport,
		Dispatcher: dispatcher,
		Messages:   cfg.Messages,
		DBTimeout:  cfg.Database.OperationTimeout,
	})

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Flow:    flow,
		Replier: transport,
	}
	if err := telegram.RegisterHandlers(ctx, tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return err
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		States: states,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}

	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return runErr
	}

	log.Info("Bot stopped gracefully")
	return nil
}
