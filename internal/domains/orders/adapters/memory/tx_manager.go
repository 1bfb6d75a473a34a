package memory

import (
	"context"
	"sync"

	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
)

var _ ports.TxManager = (*TxManager)(nil)

type txKey struct{}

// Participant is an in-memory adapter whose state a TxManager can roll back.
type Participant interface {
	// snapshot captures the current state and returns a func restoring it.
	snapshot() func()
}

var (
	_ Participant = (*Repository)(nil)
	_ Participant = (*IdempotencyStore)(nil)
)

// TxManager serialises units of work against the in-memory adapters.
// Participants are snapshotted before fn runs and restored when it fails or panics.
type TxManager struct {
	mu           sync.Mutex
	participants []Participant
}

// NewTxManager builds a TxManager that rolls back the given participants.
func NewTxManager(participants ...Participant) *TxManager {
	return &TxManager{participants: participants}
}

// WithinTransaction runs fn exclusively. Nested calls join the outer unit of work.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.participants))
	for _, p := range m.participants {
		if p != nil {
			restores = append(restores, p.snapshot())
		}
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}
