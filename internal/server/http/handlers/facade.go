package handlers

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/usecase"
)

// CartFacade exposes cart operations to HTTP handlers.
type CartFacade interface {
	Cart(ctx context.Context, actor model.Actor) (*model.Cart, error)
	AddCartItem(ctx context.Context, actor model.Actor, productID int64, colorID *int64, quantity int) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, actor model.Actor, lineID int64, quantity int) (*model.Cart, error)
	RemoveCartItem(ctx context.Context, actor model.Actor, lineID int64) (*model.Cart, error)
	ApplyCoupon(ctx context.Context, actor model.Actor, code string) (*model.Cart, error)
}

// PaymentFacade exposes checkout and reconciliation entry points.
type PaymentFacade interface {
	InitiatePayment(ctx context.Context, actor model.Actor, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
	RetryPayment(ctx context.Context, actor model.Actor, orderID int64, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
	PaymentStatus(ctx context.Context, actor model.Actor, orderID int64) (*usecase.OrderStatusView, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*usecase.WebhookResult, error)
}

// OrderFacade exposes order lifecycle operations.
type OrderFacade interface {
	CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
}

// HealthFacade reports readiness of backing services.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// CheckoutFacade aggregates the full set of operations used across handlers.
type CheckoutFacade interface {
	CartFacade
	PaymentFacade
	OrderFacade
	HealthFacade
}
