package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	ordersredis "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/idempotency/redis"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

// commitFailingTx runs the unit of work and then reports a failed commit.
type commitFailingTx struct{}

func (commitFailingTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return errors.New("commit failed: connection reset")
}

type failingIdempotencyStore struct {
	*memory.IdempotencyStore
}

func (failingIdempotencyStore) Save(context.Context, ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	return nil, errors.New("idempotency store unavailable")
}

func newRedisStore(t *testing.T) (*ordersredis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ordersredis.NewStore(client, time.Hour), mr
}

func TestCreate_RedisKeyIsReleasedWhenCommitFails(t *testing.T) {
	store, mr := newRedisStore(t)
	req := exampleRequest()
	req.IdempotencyKey = "k1"

	failing := NewService(
		memory.NewRepository(),
		memory.NewMenuRepository(10, 11),
		memory.NewOrderTableRepository(5),
		commitFailingTx{},
		WithIdempotencyStore(store),
	)
	_, err := failing.Create(context.Background(), req)
	require.Error(t, err)
	require.False(t, mr.Exists(ordersredis.KeyPrefix+"k1"))

	f := newFixture(WithIdempotencyStore(store))
	resp, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotZero(t, resp.ID)

	record, err := store.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, resp.ID, record.OrderID)
}

func TestCreate_RedisKeyReplaysCommittedOrder(t *testing.T) {
	store, _ := newRedisStore(t)
	f := newFixture(WithIdempotencyStore(store))
	req := exampleRequest()
	req.IdempotencyKey = "table-5-dinner"

	first, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, f.orders.saves)
	require.Len(t, f.publisher.events, 1)

	req.OrderLineItems[0].Quantity = 9
	_, err = f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestCreate_RedisKeyInFlightIsAConflict(t *testing.T) {
	store, _ := newRedisStore(t)
	f := newFixture(WithIdempotencyStore(store))
	req := exampleRequest()
	req.IdempotencyKey = "in-flight"
	hash, err := FingerprintCreateOrder(req)
	require.NoError(t, err)

	existing, err := store.Reserve(context.Background(), "in-flight", hash)
	require.NoError(t, err)
	require.Nil(t, existing)

	_, err = f.svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrIdempotencyInProgress)
	require.Zero(t, f.orders.saves)
	require.Empty(t, f.publisher.events)
}

func TestCreate_FailureAfterSaveLeavesNoOrderInMemory(t *testing.T) {
	repo := memory.NewRepository()
	store := failingIdempotencyStore{IdempotencyStore: memory.NewIdempotencyStore()}
	publisher := &recordingPublisher{}
	svc := NewService(
		repo,
		memory.NewMenuRepository(10, 11),
		memory.NewOrderTableRepository(5),
		memory.NewTxManager(repo, store.IdempotencyStore),
		WithIdempotencyStore(store),
		WithEventPublisher(publisher),
	)
	req := exampleRequest()
	req.IdempotencyKey = "k1"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	orders, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Empty(t, publisher.events)
}
