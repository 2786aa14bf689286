package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/tgdialogs/pkg/ports"
)

type prefixMiddleware struct {
	next   ports.Store
	prefix string
}

// NewPrefixMiddleware namespaces every key with prefix, so several bots can share one
// backend. List only returns keys of the namespace, with the prefix stripped.
func NewPrefixMiddleware(prefix string) Middleware {
	return func(next ports.Store) ports.Store {
		if prefix == "" {
			return next
		}
		return &prefixMiddleware{next: next, prefix: prefix}
	}
}

func (m *prefixMiddleware) Has(ctx context.Context, key string) (bool, error) {
	return m.next.Has(ctx, m.prefix+key)
}

func (m *prefixMiddleware) Get(ctx context.Context, key string) ([]byte, error) {
	return m.next.Get(ctx, m.prefix+key)
}

func (m *prefixMiddleware) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.next.Set(ctx, m.prefix+key, value, ttl)
}

func (m *prefixMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, m.prefix+key)
}

func (m *prefixMiddleware) List(ctx context.Context) ([]string, error) {
	keys, err := list(ctx, m.next)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if rest, ok := strings.CutPrefix(k, m.prefix); ok {
			out = append(out, rest)
		}
	}
	return out, nil
}
