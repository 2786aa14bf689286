package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. TGDIALOGS_STORE_DRIVER.
// Fields with an envconfig tag also accept the bare name (BOT_TOKEN).
const EnvPrefix = "TGDIALOGS"

const (
	// RunModeWebhook receives updates over HTTP.
	RunModeWebhook = "webhook"
	// RunModeLongpoll polls getUpdates.
	RunModeLongpoll = "longpoll"
)

const (
	ClientTelebot  = "telebot"
	ClientTgbotapi = "tgbotapi"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// TelegramConfig holds the bot settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	Client  string `yaml:"client"`
	RunMode string `yaml:"run_mode" split_words:"true"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" split_words:"true"`
	// APIEndpoint overrides the Bot API server, e.g. a local telegram-bot-api.
	APIEndpoint string  `yaml:"api_endpoint" split_words:"true"`
	RateLimit   float64 `yaml:"rate_limit" split_words:"true"`
	RateBurst   int     `yaml:"rate_burst" split_words:"true"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	// Lock serializes updates of a chat across instances.
	Lock bool `yaml:"lock"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type MongoConfig struct {
	URI        string `yaml:"uri" envconfig:"MONGO_URI"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Prefix string `yaml:"prefix"`
	// EncryptionKey enables AES-256-GCM at rest (hex or base64, 32 bytes).
	EncryptionKey string `yaml:"encryption_key" split_words:"true"`
	// FallbackKeys are previous keys still accepted for decryption.
	FallbackKeys []string      `yaml:"fallback_keys" split_words:"true"`
	LockTTL      time.Duration `yaml:"lock_ttl" split_words:"true"`

	Redis RedisConfig `yaml:"redis"`
	File  FileConfig  `yaml:"file"`
	Mongo MongoConfig `yaml:"mongo"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config aggregates the application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	// Flows lists YAML files with declarative dialogs to register.
	Flows []string `yaml:"flows"`
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment values win over the file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize applies defaults and validates the configuration.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}

	client := strings.ToLower(strings.TrimSpace(cfg.Telegram.Client))
	switch client {
	case "":
		client = ClientTelebot
	case ClientTelebot, ClientTgbotapi:
	default:
		return fmt.Errorf("invalid telegram.client %q; allowed: telebot, tgbotapi", cfg.Telegram.Client)
	}
	cfg.Telegram.Client = client

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			cfg.Webhook.Listen = ":8080"
		}
		if cfg.Webhook.Path == "" {
			cfg.Webhook.Path = "/telegram/webhook"
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Telegram.RateLimit < 0 {
		return errors.New("telegram.rate_limit must be >= 0")
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch driver {
	case "":
		driver = DriverMemory
	case DriverMemory:
	case DriverFile:
		if cfg.Store.File.Dir == "" {
			cfg.Store.File.Dir = ".tgdialogs/sessions"
		}
	case DriverRedis:
		if cfg.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required when store.driver is 'redis'")
		}
	case DriverMongo:
		if cfg.Store.Mongo.URI == "" {
			return errors.New("store.mongo.uri is required when store.driver is 'mongo'")
		}
		if cfg.Store.Mongo.Database == "" {
			cfg.Store.Mongo.Database = "tgdialogs"
		}
		if cfg.Store.Mongo.Collection == "" {
			cfg.Store.Mongo.Collection = "dialogs"
		}
	default:
		return fmt.Errorf("invalid store.driver %q; allowed: memory, file, redis, mongo", cfg.Store.Driver)
	}
	cfg.Store.Driver = driver

	if cfg.Store.Redis.Lock && driver != DriverRedis {
		return errors.New("store.redis.lock requires store.driver 'redis'")
	}
	if cfg.Store.LockTTL < 0 {
		return errors.New("store.lock_ttl must be >= 0")
	}
	if len(cfg.Store.FallbackKeys) > 0 && cfg.Store.EncryptionKey == "" {
		return errors.New("store.fallback_keys requires store.encryption_key")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "text":
		cfg.Logging.Format = "text"
	case "json":
		cfg.Logging.Format = "json"
	default:
		return fmt.Errorf("invalid logging.format %q; allowed: text, json", cfg.Logging.Format)
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// RequireToken fails when no bot token is configured. Commands that only touch the
// store (session, validate) do not need one.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram token is required (telegram.token or BOT_TOKEN)")
	}
	return nil
}
