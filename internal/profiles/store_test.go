package profiles

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/amm-validator/internal/security"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // separate DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}

func strictConfig() security.Config {
	cfg := security.DefaultConfig()
	cfg.MaxPriceImpactBps = 300
	cfg.MinSwapAmounts[value.NewAssetClass(make([]byte, value.PolicyIDLen), []byte("TOKEN"))] = 50
	return cfg
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"POOL", "ada-token.v1", "a", "pool_42"} {
		assert.NoError(t, ValidateKey(key), key)
	}
	for _, key := range []string{"", " ", "pool with spaces", "pool:colon", "pool\nnewline"} {
		assert.Error(t, ValidateKey(key), key)
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "POOL")
	assert.ErrorIs(t, err, ErrNotFound)

	cfg := strictConfig()
	p, err := store.Upsert(ctx, "POOL", cfg)
	require.NoError(t, err)
	assert.Equal(t, "POOL", p.Key)
	assert.NotZero(t, p.UpdatedAt)

	got, err := store.Get(ctx, "POOL")
	require.NoError(t, err)
	assert.Equal(t, cfg, got.Config)
	assert.Equal(t, p.UpdatedAt, got.UpdatedAt)
}

func TestStore_UpsertRejectsInvalidConfig(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)

	cfg := security.DefaultConfig()
	cfg.MaxTxInputs = 0
	_, err = store.Upsert(context.Background(), "POOL", cfg)
	assert.Error(t, err)

	_, err = store.Upsert(context.Background(), "bad key", security.DefaultConfig())
	assert.Error(t, err)
}

func TestStore_Resolve(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	fallback := security.DefaultConfig()
	cfg, err := store.Resolve(ctx, "POOL", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, cfg)

	_, err = store.Upsert(ctx, "POOL", strictConfig())
	require.NoError(t, err)
	cfg, err = store.Resolve(ctx, "POOL", fallback)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), cfg.MaxPriceImpactBps)
}

func TestStore_ListAndDelete(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for i := 0; i < 3; i++ {
		_, err := store.Upsert(ctx, fmt.Sprintf("pool.%d", i), security.DefaultConfig())
		require.NoError(t, err)
	}
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, store.Delete(ctx, "pool.1"))
	_, err = store.Get(ctx, "pool.1")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// deleting a missing profile is not an error
	assert.NoError(t, store.Delete(ctx, "pool.missing"))
}
