package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/aretw0/tgdialogs/pkg/ports"
)

// ErrListUnsupported is returned by List when the store cannot enumerate keys.
var ErrListUnsupported = ports.ErrListUnsupported

// Repository persists dialogs in a store under prefixed session keys.
type Repository struct {
	store    ports.Store
	registry *dialog.Registry
	prefix   string
}

// NewRepository creates a repository. Definitions of every dialog that may be persisted
// must be registered in registry.
func NewRepository(store ports.Store, registry *dialog.Registry, prefix string) *Repository {
	return &Repository{store: store, registry: registry, prefix: prefix}
}

func (r *Repository) Registry() *dialog.Registry { return r.registry }
func (r *Repository) Store() ports.Store         { return r.store }

func (r *Repository) key(key string) string {
	return r.prefix + key
}

// Put stores d under key with the dialog TTL.
func (r *Repository) Put(ctx context.Context, key string, d *dialog.Dialog) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dialog %q: %w", key, err)
	}
	if err := r.store.Set(ctx, r.key(key), data, d.TTL()); err != nil {
		return fmt.Errorf("store dialog %q: %w", key, err)
	}
	return nil
}

// Get restores the dialog stored under key.
func (r *Repository) Get(ctx context.Context, key string, opts ...dialog.Option) (*dialog.Dialog, error) {
	data, err := r.store.Get(ctx, r.key(key))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDialogNotFound, key)
		}
		return nil, fmt.Errorf("load dialog %q: %w", key, err)
	}
	d, err := r.registry.Restore(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore dialog %q: %w", key, err)
	}
	return d, nil
}

// Inspect decodes the snapshot stored under key without resolving its definition.
func (r *Repository) Inspect(ctx context.Context, key string) (dialog.Snapshot, error) {
	data, err := r.store.Get(ctx, r.key(key))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return dialog.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrDialogNotFound, key)
		}
		return dialog.Snapshot{}, fmt.Errorf("load dialog %q: %w", key, err)
	}
	return dialog.DecodeSnapshot(data)
}

// Has reports whether a dialog is stored under key.
func (r *Repository) Has(ctx context.Context, key string) (bool, error) {
	return r.store.Has(ctx, r.key(key))
}

// Forget removes the dialog stored under key.
func (r *Repository) Forget(ctx context.Context, key string) error {
	if err := r.store.Delete(ctx, r.key(key)); err != nil {
		return fmt.Errorf("forget dialog %q: %w", key, err)
	}
	return nil
}

// List returns the session keys of the stored dialogs, sorted.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	lister, ok := r.store.(ports.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	raw, err := lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dialogs: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if strings.HasPrefix(k, r.prefix) {
			keys = append(keys, strings.TrimPrefix(k, r.prefix))
		}
	}
	sort.Strings(keys)
	return keys, nil
}
