package app

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/usecase"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckoutFacade bundles the use cases exposed to HTTP handlers and the sweeper.
type CheckoutFacade struct {
	carts      *usecase.CartUseCase
	checkout   *usecase.CheckoutUseCase
	reconciler *usecase.Reconciler
	health     HealthChecker
}

func NewCheckoutFacade(carts *usecase.CartUseCase, checkout *usecase.CheckoutUseCase, reconciler *usecase.Reconciler, health HealthChecker) *CheckoutFacade {
	return &CheckoutFacade{carts: carts, checkout: checkout, reconciler: reconciler, health: health}
}

func (f *CheckoutFacade) Cart(ctx context.Context, actor model.Actor) (*model.Cart, error) {
	return f.carts.View(ctx, actor)
}

func (f *CheckoutFacade) AddCartItem(ctx context.Context, actor model.Actor, productID int64, colorID *int64, quantity int) (*model.Cart, error) {
	return f.carts.AddItem(ctx, actor, productID, colorID, quantity)
}

func (f *CheckoutFacade) UpdateCartItem(ctx context.Context, actor model.Actor, lineID int64, quantity int) (*model.Cart, error) {
	return f.carts.UpdateQuantity(ctx, actor, lineID, quantity)
}

func (f *CheckoutFacade) RemoveCartItem(ctx context.Context, actor model.Actor, lineID int64) (*model.Cart, error) {
	return f.carts.RemoveItem(ctx, actor, lineID)
}

func (f *CheckoutFacade) ApplyCoupon(ctx context.Context, actor model.Actor, code string) (*model.Cart, error) {
	return f.carts.ApplyCoupon(ctx, actor, code)
}

func (f *CheckoutFacade) InitiatePayment(ctx context.Context, actor model.Actor, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	return f.checkout.Initiate(ctx, actor, req)
}

func (f *CheckoutFacade) RetryPayment(ctx context.Context, actor model.Actor, orderID int64, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	return f.checkout.Retry(ctx, actor, orderID, req)
}

func (f *CheckoutFacade) CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.checkout.Cancel(ctx, actor, orderID)
}

func (f *CheckoutFacade) PaymentStatus(ctx context.Context, actor model.Actor, orderID int64) (*usecase.OrderStatusView, error) {
	return f.reconciler.PollOrder(ctx, actor, orderID)
}

func (f *CheckoutFacade) HandleWebhook(ctx context.Context, body []byte, signature string) (*usecase.WebhookResult, error) {
	return f.reconciler.HandleWebhook(ctx, body, signature)
}

// Health reports database reachability.
func (f *CheckoutFacade) Health(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}

func (f *CheckoutFacade) StalePayments(ctx context.Context, limit int) ([]model.Payment, error) {
	return f.reconciler.StalePayments(ctx, limit)
}

func (f *CheckoutFacade) SweepPayment(ctx context.Context, payment model.Payment) error {
	return f.reconciler.Sweep(ctx, payment)
}

func (f *CheckoutFacade) ReapIdleCarts(ctx context.Context, limit int) (int, error) {
	return f.carts.ReapIdle(ctx, limit)
}
