// Package config loads and validates digest configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Recipient  string           `mapstructure:"recipient"`
	Source     SourceConfig     `mapstructure:"source"`
	Extractor  ExtractorConfig  `mapstructure:"extractor"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
	Inbox      InboxConfig      `mapstructure:"inbox"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Umbrella   UmbrellaConfig   `mapstructure:"umbrella"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SourceConfig selects where candidate links come from.
type SourceConfig struct {
	Provider string `mapstructure:"provider"` // "gdoc" or "feed"
	DocURL   string `mapstructure:"doc_url"`
	FeedURL  string `mapstructure:"feed_url"`
}

// ExtractorConfig governs probe fetching and headless promotion.
type ExtractorConfig struct {
	UserAgent          string `mapstructure:"user_agent"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
	HeadlessEnabled    bool   `mapstructure:"headless_enabled"`
	NavTimeoutSec      int    `mapstructure:"nav_timeout_seconds"`
	PromotionThreshold int    `mapstructure:"promotion_threshold"`
}

// SummarizerConfig configures the OpenAI summarization client.
type SummarizerConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxChars    int     `mapstructure:"max_chars"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// NotifierConfig selects the delivery channel.
type NotifierConfig struct {
	Provider string         `mapstructure:"provider"` // "smtp" or "telegram"
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// SMTPConfig holds outbound mail credentials.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// TelegramConfig holds bot delivery credentials.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// InboxConfig holds IMAP credentials for reply capture.
type InboxConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Mailbox  string `mapstructure:"mailbox"`
}

// TrackerConfig selects where tracking state persists.
type TrackerConfig struct {
	Provider string `mapstructure:"provider"` // "file" or "postgres"
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// ArchiveConfig selects where captured summaries accumulate.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"` // "file" or "postgres"
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// PipelineConfig tunes selection and delivery policy.
type PipelineConfig struct {
	MinTextLength int `mapstructure:"min_text_length"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	ExcerptLength int `mapstructure:"excerpt_length"`
	PollLookback  int `mapstructure:"poll_lookback"`
}

// UmbrellaConfig configures the daily weather check.
type UmbrellaConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	Lat         float64 `mapstructure:"lat"`
	Lon         float64 `mapstructure:"lon"`
	ThresholdMM float64 `mapstructure:"threshold_mm"`
	RunHour     int     `mapstructure:"run_hour"`
	Timezone    string  `mapstructure:"timezone"` // IANA name; empty means host-local
}

// ScheduleConfig holds serve-mode cron expressions.
type ScheduleConfig struct {
	Morning      string `mapstructure:"morning"`
	Noon         string `mapstructure:"noon"`
	Umbrella     string `mapstructure:"umbrella"`
	PollInterval string `mapstructure:"poll_interval"`
}

// ServerConfig controls the serve-mode ops endpoint.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys with no functional default still need registering: Unmarshal
	// only consults AutomaticEnv for keys viper already knows, so without
	// these an env-only deployment cannot set credentials at all.
	v.SetDefault("recipient", "")
	v.SetDefault("source.doc_url", "")
	v.SetDefault("source.feed_url", "")
	v.SetDefault("summarizer.api_key", "")
	v.SetDefault("notifier.smtp.host", "")
	v.SetDefault("notifier.smtp.username", "")
	v.SetDefault("notifier.smtp.password", "")
	v.SetDefault("notifier.smtp.from", "")
	v.SetDefault("notifier.telegram.token", "")
	v.SetDefault("notifier.telegram.chat_id", 0)
	v.SetDefault("inbox.host", "")
	v.SetDefault("inbox.username", "")
	v.SetDefault("inbox.password", "")
	v.SetDefault("tracker.dsn", "")
	v.SetDefault("archive.dsn", "")
	v.SetDefault("umbrella.api_key", "")
	v.SetDefault("umbrella.lat", 0.0)
	v.SetDefault("umbrella.lon", 0.0)
	v.SetDefault("umbrella.timezone", "")

	v.SetDefault("source.provider", "gdoc")
	v.SetDefault("extractor.user_agent", "digestd/0.1")
	v.SetDefault("extractor.timeout_seconds", 20)
	v.SetDefault("extractor.headless_enabled", false)
	v.SetDefault("extractor.nav_timeout_seconds", 25)
	v.SetDefault("extractor.promotion_threshold", 2048)
	v.SetDefault("summarizer.model", "gpt-4o-mini")
	v.SetDefault("summarizer.max_chars", 48000)
	v.SetDefault("summarizer.max_tokens", 800)
	v.SetDefault("summarizer.temperature", 0.7)
	v.SetDefault("notifier.provider", "smtp")
	v.SetDefault("notifier.smtp.port", 587)
	v.SetDefault("inbox.port", 993)
	v.SetDefault("inbox.mailbox", "INBOX")
	v.SetDefault("tracker.provider", "file")
	v.SetDefault("tracker.path", "sent_articles.json")
	v.SetDefault("tracker.table", "tracker_state")
	v.SetDefault("archive.provider", "file")
	v.SetDefault("archive.path", "compiled_summaries.md")
	v.SetDefault("archive.table", "reply_notes")
	v.SetDefault("pipeline.min_text_length", 100)
	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("pipeline.excerpt_length", 1500)
	v.SetDefault("pipeline.poll_lookback", 10)
	v.SetDefault("umbrella.enabled", false)
	v.SetDefault("umbrella.threshold_mm", 1.0)
	v.SetDefault("umbrella.run_hour", 7)
	v.SetDefault("schedule.morning", "0 7 * * *")
	v.SetDefault("schedule.noon", "0 12 * * *")
	v.SetDefault("schedule.umbrella", "5 7 * * *")
	v.SetDefault("schedule.poll_interval", "10m")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Recipient == "" {
		return fmt.Errorf("recipient must be set")
	}
	switch c.Source.Provider {
	case "gdoc":
		if c.Source.DocURL == "" {
			return fmt.Errorf("source.doc_url must be set for the gdoc provider")
		}
	case "feed":
		if c.Source.FeedURL == "" {
			return fmt.Errorf("source.feed_url must be set for the feed provider")
		}
	default:
		return fmt.Errorf("source.provider must be gdoc or feed, got %q", c.Source.Provider)
	}
	switch c.Notifier.Provider {
	case "smtp":
		if c.Notifier.SMTP.Host == "" {
			return fmt.Errorf("notifier.smtp.host must be set for the smtp provider")
		}
		if c.Notifier.SMTP.From == "" {
			return fmt.Errorf("notifier.smtp.from must be set for the smtp provider")
		}
	case "telegram":
		if c.Notifier.Telegram.Token == "" {
			return fmt.Errorf("notifier.telegram.token must be set for the telegram provider")
		}
	default:
		return fmt.Errorf("notifier.provider must be smtp or telegram, got %q", c.Notifier.Provider)
	}
	switch c.Tracker.Provider {
	case "file":
		if c.Tracker.Path == "" {
			return fmt.Errorf("tracker.path must be set for the file provider")
		}
	case "postgres":
		if c.Tracker.DSN == "" {
			return fmt.Errorf("tracker.dsn must be set for the postgres provider")
		}
	default:
		return fmt.Errorf("tracker.provider must be file or postgres, got %q", c.Tracker.Provider)
	}
	switch c.Archive.Provider {
	case "file":
		if c.Archive.Path == "" {
			return fmt.Errorf("archive.path must be set for the file provider")
		}
	case "postgres":
		if c.Archive.DSN == "" {
			return fmt.Errorf("archive.dsn must be set for the postgres provider")
		}
	default:
		return fmt.Errorf("archive.provider must be file or postgres, got %q", c.Archive.Provider)
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline.max_attempts must be > 0")
	}
	if c.Extractor.TimeoutSeconds <= 0 {
		return fmt.Errorf("extractor.timeout_seconds must be > 0")
	}
	if c.Umbrella.Enabled && c.Umbrella.APIKey == "" {
		return fmt.Errorf("umbrella.api_key must be set when the umbrella check is enabled")
	}
	if c.Umbrella.Timezone != "" {
		if _, err := time.LoadLocation(c.Umbrella.Timezone); err != nil {
			return fmt.Errorf("umbrella.timezone: %w", err)
		}
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if _, err := time.ParseDuration(c.Schedule.PollInterval); err != nil {
		return fmt.Errorf("schedule.poll_interval: %w", err)
	}
	return nil
}

// ExtractTimeout converts the extractor timeout into a duration.
func (c Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Extractor.TimeoutSeconds) * time.Second
}

// UmbrellaLocation resolves the umbrella run-hour timezone. Empty config
// means the host's local time, matching the cron scheduler.
func (c Config) UmbrellaLocation() (*time.Location, error) {
	if c.Umbrella.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Umbrella.Timezone)
}

// NavTimeout converts the headless navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Extractor.NavTimeoutSec) * time.Second
}

// PollEvery returns the parsed serve-mode poll interval.
func (c Config) PollEvery() time.Duration {
	d, err := time.ParseDuration(c.Schedule.PollInterval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}
