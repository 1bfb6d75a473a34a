package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), mr
}

func TestStore_SaveAndGet(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "abc", RequestHash: "h1", OrderID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), saved.OrderID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.True(t, mr.Exists(KeyPrefix+"abc"))
	assert.Equal(t, time.Hour, mr.TTL(KeyPrefix+"abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.Key)
	assert.Equal(t, "h1", got.RequestHash)
	assert.Equal(t, int64(3), got.OrderID)
}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveSameRecordTwiceReturnsExisting(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()
	record := ports.IdempotencyRecord{Key: "abc", RequestHash: "h1", OrderID: 3}

	_, err := store.Save(ctx, record)
	require.NoError(t, err)
	again, err := store.Save(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, int64(3), again.OrderID)
}

func TestStore_SaveConflict(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Save(ctx, ports.IdempotencyRecord{Key: "abc", RequestHash: "h1", OrderID: 3})
	require.NoError(t, err)

	existing, err := store.Save(ctx, ports.IdempotencyRecord{Key: "abc", RequestHash: "h2", OrderID: 4})
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.NotNil(t, existing)
	assert.Equal(t, "h1", existing.RequestHash)
}

func TestStore_KeysExpire(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Save(ctx, ports.IdempotencyRecord{Key: "abc", RequestHash: "h1", OrderID: 3})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ReserveClaimsKeyOnce(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	existing, err := store.Reserve(ctx, "abc", "h1")
	require.NoError(t, err)
	assert.Nil(t, existing)
	assert.Equal(t, DefaultPendingTTL, mr.TTL(KeyPrefix+"abc"))

	existing, err = store.Reserve(ctx, "abc", "h1")
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.True(t, existing.Pending())
	assert.Equal(t, "h1", existing.RequestHash)
}

func TestStore_SaveCompletesReservation(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "abc", "h1")
	require.NoError(t, err)
	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "abc", RequestHash: "h1", OrderID: 9})
	require.NoError(t, err)
	assert.Equal(t, int64(9), saved.OrderID)
	assert.Equal(t, time.Hour, mr.TTL(KeyPrefix+"abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Pending())
	assert.Equal(t, int64(9), got.OrderID)
}

func TestStore_SaveRejectsReservationWithOtherHash(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "abc", "h1")
	require.NoError(t, err)
	existing, err := store.Save(ctx, ports.IdempotencyRecord{Key: "abc", RequestHash: "h2", OrderID: 9})
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.NotNil(t, existing)
	assert.True(t, existing.Pending())
}

func TestStore_ReleaseDropsOnlyPendingKeys(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "pending", "h1")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "pending"))
	assert.False(t, mr.Exists(KeyPrefix+"pending"))

	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "done", RequestHash: "h1", OrderID: 3})
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "done"))
	assert.True(t, mr.Exists(KeyPrefix+"done"))

	require.NoError(t, store.Release(ctx, "unknown"))
}

func TestStore_AbandonedReservationExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	store.WithPendingTTL(10 * time.Second)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "abc", "h1")
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)

	existing, err := store.Reserve(ctx, "abc", "h2")
	require.NoError(t, err)
	assert.Nil(t, existing)
}
