package repository

import "context"

// Factory describes access to different domain repositories.
type Factory interface {
	Carts() CartRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Stock() StockRepository
	Catalog() Catalog
}

// Transactor runs fn with repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Factory) error) error
}

// Store is the full persistence surface used by use cases.
type Store interface {
	Factory
	Transactor
}
