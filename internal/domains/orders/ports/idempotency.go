package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInProgress indicates the key is reserved by a create that has not committed yet.
	ErrIdempotencyInProgress = errors.New("idempotency key in progress")
)

// IdempotencyRecord associates a client-supplied key with the order it created.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pending reports whether the record is a reservation that has no order yet.
func (r IdempotencyRecord) Pending() bool {
	return r.OrderID == 0
}

// IdempotencyStore persists idempotency keys so retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record; if the key already exists with the same hash and order, the stored record is returned.
	// When the key exists but points to a different request/order, ErrIdempotencyConflict is returned with the stored record.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}

// IdempotencyReservations is implemented by stores that live outside the order transaction.
// The key is reserved before the transaction starts, released if it fails, and completed with
// Save only after commit, so a stored order id always refers to a committed order.
type IdempotencyReservations interface {
	// Reserve claims the key for requestHash. It returns nil when the claim succeeded and the
	// existing record otherwise; a pending record belongs to a create still in flight.
	Reserve(ctx context.Context, key, requestHash string) (*IdempotencyRecord, error)
	// Release drops a pending reservation. Completed records are left untouched.
	Release(ctx context.Context, key string) error
}
