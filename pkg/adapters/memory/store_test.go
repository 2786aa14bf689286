package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tgdialogs/pkg/adapters/memory"
	"github.com/aretw0/tgdialogs/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("y"), 0))

	now = now.Add(59 * time.Second)
	ok, err := store.Has(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, keys)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
