package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

// KeyPrefix namespaces idempotency keys in a shared Redis.
const KeyPrefix = "kitchenpos:idempotency:"

// DefaultPendingTTL bounds how long a reservation survives a create that never completes.
const DefaultPendingTTL = time.Minute

var (
	_ ports.IdempotencyStore        = (*Store)(nil)
	_ ports.IdempotencyReservations = (*Store)(nil)
)

// Store keeps idempotency records in Redis with a TTL. It sits outside the order transaction,
// so the service reserves keys before the transaction and completes them after commit.
type Store struct {
	client     goredis.UniversalClient
	ttl        time.Duration
	pendingTTL time.Duration
	now        func() time.Time
}

// NewStore wires a Redis-backed idempotency store. A non-positive ttl keeps completed keys forever.
func NewStore(client goredis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, pendingTTL: DefaultPendingTTL, now: time.Now}
}

// WithPendingTTL overrides how long an uncompleted reservation is kept.
func (s *Store) WithPendingTTL(ttl time.Duration) *Store {
	if ttl > 0 {
		s.pendingTTL = ttl
	}
	return s
}

type storedRecord struct {
	RequestHash string    `json:"requestHash"`
	OrderID     int64     `json:"orderId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Get loads a record by key, returning nil when absent or expired.
func (s *Store) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	return read(ctx, s.client, key)
}

// Reserve claims key with a pending record that expires after the pending TTL.
func (s *Store) Reserve(ctx context.Context, key, requestHash string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	payload, err := encode(ports.IdempotencyRecord{RequestHash: requestHash, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, err
	}
	claimed, err := s.client.SetNX(ctx, KeyPrefix+key, payload, s.pendingTTL).Result()
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, nil
	}
	existing, err := read(ctx, s.client, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("idempotency key %q expired during reserve", key)
	}
	return existing, nil
}

// Release deletes key while it is still pending.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	redisKey := KeyPrefix + key
	return s.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := read(ctx, tx, key)
		if err != nil || current == nil || !current.Pending() {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, redisKey)
			return nil
		})
		return err
	}, redisKey)
}

// Save completes a pending reservation carrying the same hash, or stores a new record.
// An existing record with a different hash or order yields ErrIdempotencyConflict together
// with the stored record.
func (s *Store) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	redisKey := KeyPrefix + record.Key

	var existing *ports.IdempotencyRecord
	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := read(ctx, tx, record.Key)
		if err != nil {
			return err
		}
		if current != nil && !(current.Pending() && current.RequestHash == record.RequestHash) {
			existing = current
			return nil
		}
		if current != nil {
			record.CreatedAt = current.CreatedAt
		}
		payload, err := encode(record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, redisKey, payload, s.completedTTL())
			return nil
		})
		return err
	}, redisKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
			return existing, ports.ErrIdempotencyConflict
		}
		return existing, nil
	}
	saved := record
	return &saved, nil
}

func (s *Store) completedTTL() time.Duration {
	if s.ttl < 0 {
		return 0
	}
	return s.ttl
}

func (s *Store) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func read(ctx context.Context, c getter, key string) (*ports.IdempotencyRecord, error) {
	raw, err := c.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode idempotency record %q: %w", key, err)
	}
	return &ports.IdempotencyRecord{
		Key:         key,
		RequestHash: stored.RequestHash,
		OrderID:     stored.OrderID,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.UpdatedAt,
	}, nil
}

func encode(record ports.IdempotencyRecord) ([]byte, error) {
	return json.Marshal(storedRecord{
		RequestHash: record.RequestHash,
		OrderID:     record.OrderID,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	})
}
