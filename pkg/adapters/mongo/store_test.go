package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aretw0/tgdialogs/pkg/adapters/mongo"
	"github.com/aretw0/tgdialogs/pkg/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect returns a store on a throwaway collection, or skips when no server is configured.
func connect(t *testing.T, opts ...mongo.Option) *mongo.Store {
	t.Helper()
	uri := os.Getenv("TGDIALOGS_MONGO_URI")
	if uri == "" {
		t.Skip("TGDIALOGS_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := mongo.Connect(ctx, uri, "tgdialogs_test", "dialogs_"+uuid.NewString()[:8], opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestMongoStore_Contract(t *testing.T) {
	ports.RunStoreContract(t, connect(t))
}

func TestMongoStore_ExpiredDocumentsAreHidden(t *testing.T) {
	now := time.Now()
	store := connect(t, mongo.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("y"), 0))

	now = now.Add(time.Hour)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, keys)
}
