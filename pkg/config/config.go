package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds runtime configuration for the funnel bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Bot        BotConfig        `mapstructure:"bot" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Media      MediaConfig      `mapstructure:"media"`
	Reminders  RemindersConfig  `mapstructure:"reminders"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token       string        `mapstructure:"token" validate:"required"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// ServerConfig configures the inbound webhook HTTP server.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode,
	)
}

// RedisConfig configures the Redis connection shared by state locks and the job queue.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GenerationConfig holds one workflow endpoint per generation target kind
// plus the outbound send timeout and the reply correlation timeout.
type GenerationConfig struct {
	OsebeURL    string `mapstructure:"osebe_url" validate:"required,url"`
	PostURL     string `mapstructure:"post_url" validate:"required,url"`
	BluebuttURL string `mapstructure:"bluebutt_url" validate:"required,url"`
	AnonsURL    string `mapstructure:"anons_url" validate:"required,url"`
	ProdajURL   string `mapstructure:"prodaj_url" validate:"required,url"`

	SendTimeout  time.Duration `mapstructure:"send_timeout"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout"`
}

// OpenAIConfig configures voice transcription.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// MediaConfig points at the lesson video directory.
type MediaConfig struct {
	Dir string `mapstructure:"dir"`
}

// Video returns the path of a lesson video by its number.
func (c MediaConfig) Video(n int) string {
	dir := c.Dir
	if dir == "" {
		dir = "media"
	}

	return filepath.Join(dir, fmt.Sprintf("learn%d.mp4", n))
}

// RemindersConfig holds the three reminder delays counted from video delivery.
type RemindersConfig struct {
	First  time.Duration `mapstructure:"first"`
	Second time.Duration `mapstructure:"second"`
	Third  time.Duration `mapstructure:"third"`
}

// RateLimitConfig throttles incoming updates per user. Whitelisted ids bypass
// the limits entirely.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Global    RateLimitRule `mapstructure:"global"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// RateLimitRule pairs a request count with its window.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// LoggerConfig configures structured logging output.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

func (c *Config) applyDefaults() {
	if c.Bot.PollTimeout == 0 {
		c.Bot.PollTimeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Generation.SendTimeout == 0 {
		c.Generation.SendTimeout = 10 * time.Second
	}
	if c.Generation.ReplyTimeout == 0 {
		c.Generation.ReplyTimeout = 180 * time.Second
	}
	if c.Reminders.First == 0 {
		c.Reminders.First = 10 * time.Minute
	}
	if c.Reminders.Second == 0 {
		c.Reminders.Second = time.Hour
	}
	if c.Reminders.Third == 0 {
		c.Reminders.Third = 24 * time.Hour
	}
	if c.RateLimit.PerUser.Limit == 0 {
		c.RateLimit.PerUser = RateLimitRule{Limit: 30, Window: "1m"}
	}
	if c.RateLimit.Global.Limit == 0 {
		c.RateLimit.Global = RateLimitRule{Limit: 1000, Window: "1m"}
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
}
