package repository

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// StockRepository reads and writes stock rows and the movement ledger.
type StockRepository interface {
	// Lock returns the current stock and holds a row lock until the transaction ends.
	Lock(ctx context.Context, productID int64, colorID *int64) (int, error)
	Available(ctx context.Context, productID int64, colorID *int64) (int, error)
	Set(ctx context.Context, productID int64, colorID *int64, stock int) error
	AppendMovement(ctx context.Context, movement *model.StockMovement) error
	MovementsByOrder(ctx context.Context, orderID int64) ([]model.StockMovement, error)
}

// Catalog supplies live product data and coupons.
type Catalog interface {
	Item(ctx context.Context, productID int64, colorID *int64) (*model.CatalogItem, error)
	Coupon(ctx context.Context, code string) (*model.Coupon, error)
}
