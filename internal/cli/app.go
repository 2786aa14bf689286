// Package cli wires configuration into a running bot: store, registry, manager,
// transport and router.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	botapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	tele "gopkg.in/telebot.v4"

	"github.com/aretw0/tgdialogs/internal/bot"
	"github.com/aretw0/tgdialogs/internal/config"
	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/adapters/file"
	"github.com/aretw0/tgdialogs/pkg/adapters/memory"
	"github.com/aretw0/tgdialogs/pkg/adapters/mongo"
	"github.com/aretw0/tgdialogs/pkg/adapters/redis"
	"github.com/aretw0/tgdialogs/pkg/adapters/telebot"
	"github.com/aretw0/tgdialogs/pkg/adapters/tgbotapi"
	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/dialogs/hello"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/aretw0/tgdialogs/pkg/observability"
	"github.com/aretw0/tgdialogs/pkg/persistence/middleware"
	"github.com/aretw0/tgdialogs/pkg/ports"
	"github.com/aretw0/tgdialogs/pkg/session"
)

// App holds the components built from a configuration.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    ports.Store
	Registry *dialog.Registry
	Manager  *session.Manager
	Metrics  *observability.Metrics

	// Flows are the definitions loaded from the configured flow files.
	Flows []*dialog.Definition

	closers []func(context.Context) error

	// Set by NewTransport, depending on the configured client.
	telebotBot *tele.Bot
	botAPI     *botapi.BotAPI
}

// NewLogger creates the logger described by cfg.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if cfg.Format == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

// Build creates the store, the registry and the manager. The manager has no transport
// yet; see NewTransport.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	base, locker, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	mws := []middleware.Middleware{middleware.NewPrefixMiddleware(cfg.Store.Prefix)}
	if cfg.Store.EncryptionKey != "" {
		enc, err := encryption(cfg.Store)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		mws = append(mws, enc)
	}
	a.Store = middleware.Chain(base, mws...)

	a.Registry = dialog.NewRegistry(hello.Definition())
	for _, path := range cfg.Flows {
		defs, err := dialog.LoadFlowsFile(path)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		for _, def := range defs {
			a.Registry.Register(def)
			a.Flows = append(a.Flows, def)
		}
	}

	hooks := observability.LoggingHooks(logger)
	if cfg.Metrics.Enabled {
		a.Metrics, err = observability.NewMetrics(nil)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		hooks = observability.Combine(hooks, a.Metrics.Hooks())
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithLifecycleHooks(hooks),
		session.WithLockTTL(cfg.Store.LockTTL),
	}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	a.Manager = session.NewManager(session.NewRepository(a.Store, a.Registry, ""), opts...)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (ports.Store, ports.DistributedLocker, error) {
	cfg := a.Config.Store
	switch cfg.Driver {
	case config.DriverFile:
		return file.New(cfg.File.Dir), nil, nil
	case config.DriverRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		var locker ports.DistributedLocker
		if cfg.Redis.Lock {
			locker = redis.NewLocker(store.Client(), redis.DefaultPrefix+cfg.Prefix)
		}
		return store, locker, nil
	case config.DriverMongo:
		store, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, mongo.WithLogger(a.Logger))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil, nil
	default:
		return memory.NewStore(), nil, nil
	}
}

func encryption(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec), nil
}

// NewTransport connects to the Bot API with the configured client library and injects
// the transport into the manager.
func (a *App) NewTransport() (ports.Transport, error) {
	cfg := a.Config.Telegram
	if err := a.Config.RequireToken(); err != nil {
		return nil, err
	}

	var t ports.Transport
	switch cfg.Client {
	case config.ClientTgbotapi:
		api, err := tgbotapi.NewBotAPI(cfg.Token, cfg.APIEndpoint, 0)
		if err != nil {
			return nil, err
		}
		a.botAPI = api
		t = tgbotapi.NewTransport(api,
			tgbotapi.WithLogger(a.Logger),
			tgbotapi.WithRateLimit(rateOrDefault(cfg.RateLimit), cfg.RateBurst),
		)
	default:
		b, err := telebot.NewBot(cfg.Token, cfg.LongPollTimeoutSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		a.telebotBot = b
		t = telebot.NewTransport(b, telebot.WithLogger(a.Logger))
	}
	a.Manager.SetTransport(t)
	return t, nil
}

// Poll receives updates by long polling until ctx is done. NewTransport must be called first.
func (a *App) Poll(ctx context.Context, handle func(context.Context, *domain.Update) error) error {
	timeout := a.Config.Telegram.LongPollTimeoutSeconds
	switch {
	case a.botAPI != nil:
		if timeout <= 0 {
			timeout = 10
		}
		tgbotapi.Poll(ctx, a.botAPI, timeout, handle, a.Logger)
	case a.telebotBot != nil:
		telebot.Poll(ctx, a.telebotBot, telebot.NewPoller(timeout), handle, a.Logger)
	default:
		return errors.New("no telegram client: call NewTransport first")
	}
	return nil
}

func rateOrDefault(r float64) float64 {
	if r == 0 {
		return tgbotapi.DefaultRate
	}
	return r
}

// Router routes "/start" and "hello bot" to the hello dialog and "/<name>" to every
// loaded flow.
func (a *App) Router(t ports.Transport) *bot.Router {
	r := bot.NewRouter(a.Manager, t, bot.WithLogger(a.Logger))
	for _, def := range a.Flows {
		r.Route(bot.Command("/"+def.Name), def)
	}
	r.Route(bot.Any(bot.Command("/start"), bot.Contains("hello bot")), hello.Definition())
	return r
}

// Close releases store connections.
func (a *App) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
