package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/aretw0/tgdialogs/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed chat lock is held if the holder dies.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates the dialog lifecycle, ensuring updates of one chat are processed
// one at a time. It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	repo      *Repository
	resolver  *Resolver
	transport ports.Transport

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and the dialogs it runs.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTransport sets the transport injected into every rehydrated dialog.
func WithTransport(t ports.Transport) Option {
	return func(m *Manager) {
		m.transport = t
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// NewManager creates a new dialog Manager on top of repo.
func NewManager(repo *Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		resolver: NewResolver(repo),
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Repository() *Repository { return m.repo }
func (m *Manager) Resolver() *Resolver     { return m.resolver }

// SetTransport swaps the transport used from now on, e.g. in multi-bot applications.
func (m *Manager) SetTransport(t ports.Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transport = t
}

func (m *Manager) currentTransport() ports.Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transport
}

// Activate makes d the active dialog of its key, replacing whatever was stored there.
func (m *Manager) Activate(ctx context.Context, d *dialog.Dialog) error {
	return m.WithLock(ctx, ChatKey(d.ChatID()), func(ctx context.Context) error {
		return m.activate(ctx, d)
	})
}

func (m *Manager) activate(ctx context.Context, d *dialog.Dialog) error {
	key := KeyFor(d)
	if err := m.repo.Put(ctx, key, d); err != nil {
		return err
	}
	m.logger.Debug("dialog activated", "key", key, "dialog", d.Name())
	if m.hooks.OnDialogActivate != nil {
		m.hooks.OnDialogActivate(ctx, m.dialogEvent(domain.EventDialogActivate, key, d))
	}
	return nil
}

// ProcessUpdate runs the active dialog of u for one step. Updates without an active
// dialog are ignored. Step errors propagate and leave the stored dialog untouched.
func (m *Manager) ProcessUpdate(ctx context.Context, u *domain.Update) error {
	chat := u.Chat()
	if chat == nil {
		return nil
	}
	return m.WithLock(ctx, ChatKey(chat.ID), func(ctx context.Context) error {
		return m.process(ctx, u)
	})
}

// InitiateDialog activates d and runs its first step right away with a synthetic update,
// letting the bot open the conversation.
func (m *Manager) InitiateDialog(ctx context.Context, d *dialog.Dialog) error {
	return m.WithLock(ctx, ChatKey(d.ChatID()), func(ctx context.Context) error {
		if err := m.activate(ctx, d); err != nil {
			return err
		}
		m.prepare(d)

		var userID *int64
		if id, ok := d.UserID(); ok {
			userID = &id
		}
		return m.run(ctx, KeyFor(d), d, domain.BotInitiatedUpdate(d.ChatID(), userID))
	})
}

// Exists reports whether u belongs to an active dialog.
func (m *Manager) Exists(ctx context.Context, u *domain.Update) (bool, error) {
	_, found, err := m.resolver.Resolve(ctx, u)
	return found, err
}

// HasActiveDialog is an alias of Exists.
func (m *Manager) HasActiveDialog(ctx context.Context, u *domain.Update) (bool, error) {
	return m.Exists(ctx, u)
}

// ForgetActiveDialog drops the active dialog of u, if any.
func (m *Manager) ForgetActiveDialog(ctx context.Context, u *domain.Update) error {
	chat := u.Chat()
	if chat == nil {
		return nil
	}
	return m.WithLock(ctx, ChatKey(chat.ID), func(ctx context.Context) error {
		key, found, err := m.resolver.Resolve(ctx, u)
		if err != nil || !found {
			return err
		}
		return m.repo.Forget(ctx, key)
	})
}

// List returns the keys of the stored dialogs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.repo.List(ctx)
}

func (m *Manager) process(ctx context.Context, u *domain.Update) error {
	key, found, err := m.resolver.Resolve(ctx, u)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	d, err := m.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrDialogNotFound) {
			// Expired between the lookup and the load.
			return nil
		}
		return err
	}
	m.prepare(d)
	return m.run(ctx, key, d, u)
}

func (m *Manager) prepare(d *dialog.Dialog) {
	d.SetTransport(m.currentTransport())
	d.SetLogger(m.logger)
}

// run performs steps of d until one finishes without a same-turn switch, then persists
// or forgets the dialog.
func (m *Manager) run(ctx context.Context, key string, d *dialog.Dialog, u *domain.Update) error {
	for {
		out, err := m.perform(ctx, key, d, u)
		if err != nil {
			return err
		}

		switch out.Kind {
		case dialog.OutcomeSwitchStep:
			continue
		case dialog.OutcomeSwitchDialog:
			if err := m.repo.Forget(ctx, key); err != nil {
				return err
			}
			if err := m.activate(ctx, out.Dialog); err != nil {
				return err
			}
			return m.process(ctx, u)
		}
		break
	}

	if d.IsCompleted() {
		if err := m.repo.Forget(ctx, key); err != nil {
			return err
		}
		m.logger.Debug("dialog completed", "key", key, "dialog", d.Name())
		if m.hooks.OnDialogComplete != nil {
			m.hooks.OnDialogComplete(ctx, m.dialogEvent(domain.EventDialogComplete, key, d))
		}
		return nil
	}
	return m.repo.Put(ctx, key, d)
}

func (m *Manager) perform(ctx context.Context, key string, d *dialog.Dialog, u *domain.Update) (dialog.Outcome, error) {
	index := d.Cursor()
	name := ""
	if index >= 0 && index < len(d.Definition().Steps) {
		name = d.Definition().Steps[index].Name()
	}

	if m.hooks.OnStepEnter != nil {
		m.hooks.OnStepEnter(ctx, &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepEnter, Key: key},
			Dialog:    d.Name(),
			StepIndex: index,
			StepName:  name,
		})
	}

	start := time.Now()
	out, err := d.PerformStep(ctx, u)

	if m.hooks.OnStepLeave != nil {
		ev := &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepLeave, Key: key},
			Dialog:    d.Name(),
			StepIndex: index,
			StepName:  name,
			Duration:  time.Since(start),
			Err:       err,
		}
		if err == nil {
			ev.Outcome = out.Kind.String()
		}
		m.hooks.OnStepLeave(ctx, ev)
	}

	if err != nil {
		m.logger.Error("dialog step failed", "key", key, "dialog", d.Name(), "step", name, "err", err)
		return dialog.Outcome{}, err
	}
	return out, nil
}

func (m *Manager) dialogEvent(t domain.EventType, key string, d *dialog.Dialog) *domain.DialogEvent {
	return &domain.DialogEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, Key: key},
		Dialog:    d.Name(),
		ChatID:    d.ChatID(),
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes a function while holding the lock for the chat key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "lock:"+key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
