// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from config.yaml.
// String values support ${VAR} environment expansion so secrets can stay out
// of the file.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Instagram  InstagramConfig  `yaml:"instagram"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Notify     NotifyConfig     `yaml:"notify"`
	Relay      RelayConfig      `yaml:"relay"`
	Records    RecordsConfig    `yaml:"records"`
}

// ServerConfig holds webhook server settings.
type ServerConfig struct {
	Port       int    `yaml:"port"`
	WebhookURL string `yaml:"webhook_url"`
}

// InstagramConfig holds Graph API credentials.
type InstagramConfig struct {
	AccessToken string `yaml:"access_token"`
	AppSecret   string `yaml:"app_secret"`
	VerifyToken string `yaml:"verify_token"`
}

// OpenRouterConfig holds the completion API settings.
type OpenRouterConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	ChatModel   string `yaml:"chat_model"`
	VisionModel string `yaml:"vision_model"`
}

// NotifyConfig selects and configures the operator notification backend.
type NotifyConfig struct {
	Platform string         `yaml:"platform"` // telegram, slack, discord, or none
	Telegram TelegramConfig `yaml:"telegram"`
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
}

// TelegramConfig holds Telegram bot credentials.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// SlackConfig holds Slack bot credentials.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// RelayConfig tunes the conversation relay.
type RelayConfig struct {
	Enabled              *bool  `yaml:"enabled"`
	HistoryLimit         int    `yaml:"history_limit"`
	ConversationTTLHours int    `yaml:"conversation_ttl_hours"`
	TakeoverCooldownMin  int    `yaml:"takeover_cooldown_min"`
	SweepCron            string `yaml:"sweep_cron"`
	SentLogLimit         int    `yaml:"sent_log_limit"`
	SystemPromptFile     string `yaml:"system_prompt_file"`
	KnowledgeBaseFile    string `yaml:"knowledge_base_file"`
}

// RecordsConfig selects the lead/payment record store.
type RecordsConfig struct {
	Backend string `yaml:"backend"` // sqlite, mysql, or none
	Path    string `yaml:"path"`    // sqlite database file
	DSN     string `yaml:"dsn"`     // mysql connection string
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. Environment
// variables referenced as ${VAR} are expanded before parsing.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Relay.HistoryLimit == 0 {
		c.Relay.HistoryLimit = 50
	}
	if c.Relay.ConversationTTLHours == 0 {
		c.Relay.ConversationTTLHours = 24
	}
	if c.Relay.TakeoverCooldownMin == 0 {
		c.Relay.TakeoverCooldownMin = 30
	}
	if c.Relay.SweepCron == "" {
		c.Relay.SweepCron = "*/5 * * * *"
	}
	if c.Relay.SentLogLimit == 0 {
		c.Relay.SentLogLimit = 1000
	}
	if c.Notify.Platform == "" {
		c.Notify.Platform = "none"
	}
	if c.Records.Backend == "" {
		c.Records.Backend = "none"
	}
	if c.Records.Backend == "sqlite" && c.Records.Path == "" {
		c.Records.Path = "switchboard.db"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Instagram.AccessToken == "" {
		errs = append(errs, "instagram.access_token is required")
	}
	if c.Instagram.VerifyToken == "" {
		errs = append(errs, "instagram.verify_token is required")
	}
	if c.OpenRouter.APIKey == "" {
		errs = append(errs, "openrouter.api_key is required")
	}
	switch c.Notify.Platform {
	case "none":
	case "telegram":
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			errs = append(errs, "notify.telegram requires bot_token and chat_id")
		}
	case "slack":
		if c.Notify.Slack.BotToken == "" || c.Notify.Slack.ChannelID == "" {
			errs = append(errs, "notify.slack requires bot_token and channel_id")
		}
	case "discord":
		if c.Notify.Discord.BotToken == "" || c.Notify.Discord.ChannelID == "" {
			errs = append(errs, "notify.discord requires bot_token and channel_id")
		}
	default:
		errs = append(errs, fmt.Sprintf("notify.platform %q is not supported", c.Notify.Platform))
	}
	switch c.Records.Backend {
	case "none", "sqlite":
	case "mysql":
		if c.Records.DSN == "" {
			errs = append(errs, "records.dsn is required for the mysql backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("records.backend %q is not supported", c.Records.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
