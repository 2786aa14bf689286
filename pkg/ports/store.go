package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get when the key does not exist or has expired.
var ErrNotFound = errors.New("key not found")

// ErrListUnsupported is returned when the underlying store cannot enumerate keys.
var ErrListUnsupported = errors.New("store does not support listing")

// Store defines the key-value capability used to persist dialog state between updates.
// Values are opaque blobs; only the dialog serializer understands them.
type Store interface {
	// Has reports whether a live value exists for the key.
	Has(ctx context.Context, key string) (bool, error)

	// Get retrieves the value for the key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set persists the value. A ttl <= 0 stores the value without expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores able to enumerate their live keys.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
