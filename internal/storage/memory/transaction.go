package memory

import "context"

// TransactionManager runs fn directly. Each memory store call is atomic on
// its own; there is no rollback.
type TransactionManager struct{}

func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
