package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dauglabs/switchboard/internal/config"
	"github.com/dauglabs/switchboard/internal/convo"
	"github.com/dauglabs/switchboard/internal/instagram"
	"github.com/dauglabs/switchboard/internal/notify"
	"github.com/dauglabs/switchboard/internal/openrouter"
	"github.com/dauglabs/switchboard/internal/records"
	"github.com/dauglabs/switchboard/internal/relay"
	"github.com/dauglabs/switchboard/internal/webhook"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Switchboard relay",
		Long:  "Starts the webhook server, conversation relay, and idle-conversation sweeper, and blocks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to Switchboard config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()

	store := convo.NewStore(convo.StoreOpts{
		TTL:      time.Duration(cfg.Relay.ConversationTTLHours) * time.Hour,
		MaxTurns: cfg.Relay.HistoryLimit,
	})
	sent := convo.NewSentLog(cfg.Relay.SentLogLimit)

	channel, err := instagram.New(instagram.ClientOpts{
		AccessToken: cfg.Instagram.AccessToken,
		Sent:        sent.Add,
	})
	if err != nil {
		return err
	}

	completer, err := openrouter.New(openrouter.ClientOpts{
		APIKey:      cfg.OpenRouter.APIKey,
		BaseURL:     cfg.OpenRouter.BaseURL,
		ChatModel:   cfg.OpenRouter.ChatModel,
		VisionModel: cfg.OpenRouter.VisionModel,
		Referer:     cfg.Server.WebhookURL,
	})
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg.Notify)
	if err != nil {
		return err
	}

	var recorder relay.Recorder
	if cfg.Records.Backend != "none" {
		dsn := cfg.Records.DSN
		if cfg.Records.Backend == "sqlite" {
			dsn = cfg.Records.Path
		}
		recStore, err := records.Open(cfg.Records.Backend, dsn)
		if err != nil {
			return err
		}
		recorder = recStore
	}

	systemPrompt, err := readPromptFile(cfg.Relay.SystemPromptFile)
	if err != nil {
		return err
	}
	knowledgeBase, err := readPromptFile(cfg.Relay.KnowledgeBaseFile)
	if err != nil {
		return err
	}

	handler, err := relay.NewHandler(relay.HandlerOpts{
		Store:            store,
		SentLog:          sent,
		Channel:          channel,
		Completer:        completer,
		Classifier:       completer,
		Notifier:         notifier,
		Recorder:         recorder,
		Cooldown:         time.Duration(cfg.Relay.TakeoverCooldownMin) * time.Minute,
		DisableResponses: cfg.Relay.Enabled != nil && !*cfg.Relay.Enabled,
		SystemPrompt:     systemPrompt,
		KnowledgeBase:    knowledgeBase,
		Out:              out,
	})
	if err != nil {
		return err
	}

	sweeper, err := relay.NewSweeper(relay.SweeperOpts{
		Store: store,
		Cron:  cfg.Relay.SweepCron,
		Out:   out,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go sweeper.Run(ctx)

	return webhook.Start(ctx, webhook.StartOpts{
		Handler:     handler,
		VerifyToken: cfg.Instagram.VerifyToken,
		AppSecret:   cfg.Instagram.AppSecret,
		Notifier:    notifier,
		Port:        cfg.Server.Port,
		Out:         out,
	})
}

// buildNotifier selects the notification backend from config.
func buildNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	switch cfg.Platform {
	case "none", "":
		return notify.Noop{}, nil
	case "telegram":
		return notify.NewTelegram(notify.TelegramOpts{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
		})
	case "slack":
		return notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
	case "discord":
		return notify.NewDiscord(notify.DiscordOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
	default:
		return nil, fmt.Errorf("notify: platform %q is not supported", cfg.Platform)
	}
}

// readPromptFile loads an override prompt file, or returns "" so the
// built-in default applies.
func readPromptFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file %s: %w", path, err)
	}
	return string(data), nil
}
