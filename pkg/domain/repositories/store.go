package repositories

import "context"

// View is a read-only snapshot of the store
type View interface {
	GoodsReader
	OperationReader
	GoodsTypeRepository
}

// Tx groups every repository available inside one atomic transaction
type Tx interface {
	GoodsRepository
	OperationRepository
	GoodsTypeRepository
}

// Store is the transactional record store backing goods and operations.
// RunInTransaction commits every change made through tx if fn returns nil
// and discards all of them otherwise.
type Store interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(v View) error) error
}
