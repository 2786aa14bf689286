package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tgdialogs/pkg/adapters/redis"
	"github.com/aretw0/tgdialogs/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)

	// Run contract
	store := redis.NewFromClient(client)
	ports.RunStoreContract(t, store)
}

func TestRedisStore_Layout(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "42-7", []byte(`{"next":1}`), 5*time.Minute))

	assert.True(t, mr.Exists("tg:dialog:42-7"))
	assert.Equal(t, 5*time.Minute, mr.TTL("tg:dialog:42-7"))
	members, err := mr.ZMembers("tg:dialog:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"42-7"}, members)

	require.NoError(t, store.Delete(ctx, "42-7"))
	assert.False(t, mr.Exists("tg:dialog:42-7"))
	members, _ = mr.ZMembers("tg:dialog:index")
	assert.Empty(t, members)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)
	now := time.Now()
	store := redis.NewFromClient(client,
		redis.WithPrefix("test:"),
		redis.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, store.Set(ctx, "forever", []byte("y"), 0))

	ok, err := store.Has(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	// Fast forward time in miniredis and in the index clock
	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	ok, err = store.Has(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, keys)
	assert.Equal(t, time.Duration(0), mr.TTL("test:forever"))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client)
	mr.Close()

	_, err := store.Get(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrNotFound)
}
