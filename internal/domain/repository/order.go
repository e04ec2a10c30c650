package repository

import (
	"context"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// OrderRepository describes persistence operations with orders and their item snapshots.
type OrderRepository interface {
	// NextSequence returns the next per-day order counter value for day.
	NextSequence(ctx context.Context, day time.Time) (int, error)
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetForUpdate(ctx context.Context, id int64) (*model.Order, error)
	// UpdateStatus moves the order from → to and reports whether the row matched.
	UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus) (bool, error)
	Items(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	AddItems(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error)
}
