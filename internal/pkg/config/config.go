package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Scraper  ScraperConfig  `yaml:"scraper"`
	TwoUp    TwoUpConfig    `yaml:"twoup"`
	Output   OutputConfig   `yaml:"output"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Status   StatusConfig   `yaml:"status"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ScraperConfig drives the outer run loop in cmd/scraper. The core's
// contract is one run, success or fatal error; restart cadence lives here.
type ScraperConfig struct {
	Interval   time.Duration `yaml:"interval"`    // pause between successful runs
	RetryDelay time.Duration `yaml:"retry_delay"` // pause before restarting a failed run
}

type TwoUpConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	WindowHours    int           `yaml:"window_hours"` // sliding window width, default 48
	PageSize       int           `yaml:"page_size"`
	StartPage      int           `yaml:"start_page"`
	Lang           string        `yaml:"lang"`
	SocketClientID string        `yaml:"socket_client_id"`

	// Credentials the upstream may require. A missing sign/timestamp
	// usually shows up as a non-success envelope code, not an HTTP error.
	Cookies          string `yaml:"cookies"`
	RequestSign      string `yaml:"request_sign"`
	RequestTimestamp string `yaml:"request_timestamp"`
}

type OutputConfig struct {
	Path string `yaml:"path"` // empty or relative: resolved against the default data dir
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"` // empty disables the snapshot storage
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables the fixture cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"` // empty disables notifications
	ChatID   int64  `yaml:"chat_id"`
}

type StatusConfig struct {
	Port              int           `yaml:"port"` // 0 disables the status server
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvFallbacks(&config)
	return &config, nil
}

// applyEnvFallbacks fills credentials from the environment when the
// config file leaves them empty, so secrets can stay out of yaml.
func applyEnvFallbacks(cfg *Config) {
	if cfg.TwoUp.Cookies == "" {
		cfg.TwoUp.Cookies = os.Getenv("TWOUP_COOKIES")
	}
	if cfg.TwoUp.RequestSign == "" {
		cfg.TwoUp.RequestSign = os.Getenv("TWOUP_SIGN")
	}
	if cfg.TwoUp.RequestTimestamp == "" {
		cfg.TwoUp.RequestTimestamp = os.Getenv("TWOUP_TS")
	}
}
