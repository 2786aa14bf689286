package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ClientTelebot, cfg.Telegram.Client)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Error(t, cfg.RequireToken())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-file
  client: TGBOTAPI
  run_mode: webhook
  rate_limit: 10
store:
  driver: redis
  prefix: "bot:"
  lock_ttl: 45s
  redis:
    addr: localhost:6379
    lock: true
logging:
  format: json
flows:
  - flows/survey.yaml
`)

	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("TGDIALOGS_STORE_REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.NoError(t, cfg.RequireToken())
	assert.Equal(t, ClientTgbotapi, cfg.Telegram.Client)
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
	assert.Equal(t, ":8080", cfg.Webhook.Listen)
	assert.Equal(t, "/telegram/webhook", cfg.Webhook.Path)
	assert.Equal(t, 10.0, cfg.Telegram.RateLimit)
	assert.Equal(t, "bot:", cfg.Store.Prefix)
	assert.Equal(t, 45*time.Second, cfg.Store.LockTTL)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"flows/survey.yaml"}, cfg.Flows)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	t.Setenv("TGDIALOGS_STORE_DRIVER", "file")
	t.Setenv("TGDIALOGS_TELEGRAM_RUN_MODE", "polling")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, ".tgdialogs/sessions", cfg.Store.File.Dir)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "telegram: [unclosed"))
	assert.Error(t, err)
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"client", Config{Telegram: TelegramConfig{Client: "pyrogram"}}},
		{"run mode", Config{Telegram: TelegramConfig{RunMode: "push"}}},
		{"timeout", Config{Telegram: TelegramConfig{LongPollTimeoutSeconds: -1}}},
		{"rate", Config{Telegram: TelegramConfig{RateLimit: -1}}},
		{"driver", Config{Store: StoreConfig{Driver: "etcd"}}},
		{"redis addr", Config{Store: StoreConfig{Driver: "redis"}}},
		{"mongo uri", Config{Store: StoreConfig{Driver: "mongo"}}},
		{"lock without redis", Config{Store: StoreConfig{Redis: RedisConfig{Lock: true}}}},
		{"lock ttl", Config{Store: StoreConfig{LockTTL: -time.Second}}},
		{"fallback without key", Config{Store: StoreConfig{FallbackKeys: []string{"x"}}}},
		{"log format", Config{Logging: LoggingConfig{Format: "xml"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Error(t, Normalize(&cfg))
		})
	}
	assert.Error(t, Normalize(nil))
}

func TestNormalize_MongoDefaults(t *testing.T) {
	cfg := Config{Store: StoreConfig{Driver: "Mongo", Mongo: MongoConfig{URI: "mongodb://localhost"}}}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "tgdialogs", cfg.Store.Mongo.Database)
	assert.Equal(t, "dialogs", cfg.Store.Mongo.Collection)
}
