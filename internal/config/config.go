package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"coinbrief/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Digest    DigestConfig    `toml:"digest"`
	Feeds     FeedsConfig     `toml:"feeds"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Prices    PricesConfig    `toml:"prices"`
	Storage   StorageConfig   `toml:"storage"`
	Server    ServerConfig    `toml:"server"`

	Keywords          []string        `toml:"keywords"`
	ImportantKeywords []string        `toml:"important_keywords"`
	Sources           []models.Source `toml:"sources"`
}

// DigestConfig holds ranking and selection settings.
type DigestConfig struct {
	MaxArticles int `toml:"max_articles"`
	// LookbackHours is the recency window; older articles never enter
	// the digest.
	LookbackHours int `toml:"lookback_hours"`
	// SignaturePrefixLen is the number of leading characters of the
	// normalized URL used to group corroborating articles.
	SignaturePrefixLen int `toml:"signature_prefix_len"`
}

// FeedsConfig holds RSS fetch settings.
type FeedsConfig struct {
	MaxItemsPerFeed int `toml:"max_items_per_feed"`
	TimeoutSeconds  int `toml:"timeout_seconds"`
}

// SchedulerConfig holds the briefing schedule.
type SchedulerConfig struct {
	IntervalHours int  `toml:"interval_hours"`
	RunAtStart    bool `toml:"run_at_start"`
}

// TelegramConfig holds delivery settings. The bot token and chat ID are
// deliberately not part of the file; they come from TELEGRAM_BOT_TOKEN
// and TELEGRAM_CHAT_ID.
type TelegramConfig struct {
	Token             string `toml:"-"`
	ChatID            string `toml:"-"`
	MaxMessageLength  int    `toml:"max_message_length"`
	RetryAttempts     int    `toml:"retry_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
}

// PricesConfig controls the market line at the top of the briefing.
type PricesConfig struct {
	Enabled bool `toml:"enabled"`
}

// StorageConfig controls the cross-run seen-article store.
type StorageConfig struct {
	Deduplicate bool `toml:"deduplicate"`
	CleanupDays int  `toml:"cleanup_days"`
}

// ServerConfig holds control HTTP server settings.
type ServerConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

const defaultConfigContent = `[digest]
max_articles = 10                 # Articles per briefing
lookback_hours = 24               # Ignore anything older than this
signature_prefix_len = 60         # URL prefix length for corroboration grouping

[feeds]
max_items_per_feed = 50
timeout_seconds = 30

[scheduler]
interval_hours = 2
run_at_start = true

[telegram]
max_message_length = 4000         # Telegram hard limit is 4096
retry_attempts = 3
retry_delay_seconds = 5

[prices]
enabled = true                    # Prepend a BTC market line

[storage]
deduplicate = true                # Skip articles already delivered
cleanup_days = 7

[server]
enabled = false                   # Local control API (healthz, manual run)
port = 8787

# Any article whose title or summary contains one of these (case-insensitive,
# substring match) is considered on-topic.
keywords = [
  "bitcoin", "btc", "ethereum", "eth", "crypto", "cryptocurrency",
  "blockchain", "defi", "stablecoin", "altcoin", "solana", "xrp",
  "binance", "coinbase", "web3", "token", "mining", "halving",
]

# High-signal terms that boost an article's salience when they appear in
# the title.
important_keywords = [
  "sec", "etf", "regulation", "ban", "hack", "exploit", "lawsuit",
  "all-time high", "record high", "crash", "halving", "federal reserve",
  "approval",
]

[[sources]]
name = "CoinDesk"
feed_url = "https://www.coindesk.com/arc/outboundfeeds/rss/"
trust_tier = 1
enabled = true

[[sources]]
name = "CoinTelegraph"
feed_url = "https://cointelegraph.com/rss"
trust_tier = 2
enabled = true

[[sources]]
name = "The Block"
feed_url = "https://www.theblock.co/rss.xml"
trust_tier = 1
enabled = true

[[sources]]
name = "Decrypt"
feed_url = "https://decrypt.co/feed"
trust_tier = 2
enabled = true

[[sources]]
name = "Bitcoin Magazine"
feed_url = "https://bitcoinmagazine.com/.rss/full/"
trust_tier = 3
enabled = true
`

// Load reads and parses the TOML config from the given path. If the file
// does not exist, it creates a default config file at that path. Telegram
// credentials are read from the environment with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "max_articles = 0" is an error rather than
	// silently being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("digest", "max_articles") && cfg.Digest.MaxArticles < 1 {
		return fmt.Errorf("invalid digest.max_articles %d: must be >= 1", cfg.Digest.MaxArticles)
	}
	if md.IsDefined("digest", "lookback_hours") && cfg.Digest.LookbackHours < 1 {
		return fmt.Errorf("invalid digest.lookback_hours %d: must be >= 1", cfg.Digest.LookbackHours)
	}
	if md.IsDefined("digest", "signature_prefix_len") && cfg.Digest.SignaturePrefixLen < 1 {
		return fmt.Errorf("invalid digest.signature_prefix_len %d: must be >= 1", cfg.Digest.SignaturePrefixLen)
	}
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields. The
// keyword and source lists are left as-is; an empty list in the file is
// respected.
func applyDefaults(cfg *Config) {
	if cfg.Digest.MaxArticles == 0 {
		cfg.Digest.MaxArticles = 10
	}
	if cfg.Digest.LookbackHours == 0 {
		cfg.Digest.LookbackHours = 24
	}
	if cfg.Digest.SignaturePrefixLen == 0 {
		cfg.Digest.SignaturePrefixLen = 60
	}
	if cfg.Feeds.MaxItemsPerFeed == 0 {
		cfg.Feeds.MaxItemsPerFeed = 50
	}
	if cfg.Feeds.TimeoutSeconds == 0 {
		cfg.Feeds.TimeoutSeconds = 30
	}
	if cfg.Scheduler.IntervalHours == 0 {
		cfg.Scheduler.IntervalHours = 2
	}
	if cfg.Telegram.MaxMessageLength == 0 {
		cfg.Telegram.MaxMessageLength = 4000
	}
	if cfg.Telegram.RetryAttempts == 0 {
		cfg.Telegram.RetryAttempts = 3
	}
	if cfg.Telegram.RetryDelaySeconds == 0 {
		cfg.Telegram.RetryDelaySeconds = 5
	}
	if cfg.Storage.CleanupDays == 0 {
		cfg.Storage.CleanupDays = 7
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
}

// applyEnvOverrides reads Telegram credentials from the environment.
// These are secrets and never live in the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("invalid sources[%d]: name is required", i)
		}
		if src.FeedURL == "" {
			return fmt.Errorf("invalid source %q: feed_url is required", src.Name)
		}
		if src.TrustTier < 1 || src.TrustTier > 3 {
			return fmt.Errorf("invalid source %q: trust_tier %d must be between 1 and 3", src.Name, src.TrustTier)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
	}

	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "" {
		slog.Warn("telegram credentials not set: briefings will be logged, not sent")
	}

	return nil
}
