package middleware

import (
	"context"

	"github.com/aretw0/tgdialogs/pkg/ports"
)

// Middleware allows wrapping a Store to add behavior.
type Middleware func(ports.Store) ports.Store

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.Store, mws ...Middleware) ports.Store {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// list forwards to next when it can enumerate keys.
func list(ctx context.Context, next ports.Store) ([]string, error) {
	lister, ok := next.(ports.Lister)
	if !ok {
		return nil, ports.ErrListUnsupported
	}
	return lister.List(ctx)
}
