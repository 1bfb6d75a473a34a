package ports

import "context"

// TxManager scopes a unit of work. fn receives a context bound to the transaction;
// repositories called with that context join it. Any error or panic rolls back.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTxManager runs fn directly without a transaction.
var NoopTxManager TxManager = noopTxManager{}

type noopTxManager struct{}

func (noopTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
