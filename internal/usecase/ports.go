package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// PaymentGateway is the outbound payment provider.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error)
	PaymentStatus(ctx context.Context, reference string) (*model.GatewayStatus, error)
}

// SignatureVerifier authenticates webhook deliveries.
type SignatureVerifier interface {
	VerifySignature(body []byte, header string) bool
	SignatureConfigured() bool
}

// Notifier delivers customer and operator notifications.
type Notifier interface {
	Dispatch(ctx context.Context, n model.Notification) error
}

// PollThrottle limits how often the gateway is queried for one payment.
type PollThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Recorder receives business metrics.
type Recorder interface {
	PaymentTransition(source, status string)
	GatewayCall(operation, outcome string, elapsed time.Duration)
	WebhookRejected(reason string)
	OperatorAlert(kind string)
}

const notifyTimeout = 5 * time.Second

// notify dispatches n detached from the caller's cancellation; failures are only logged.
func notify(ctx context.Context, notifier Notifier, logger *slog.Logger, n model.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := notifier.Dispatch(ctx, n); err != nil {
		logger.Warn("notification dispatch failed",
			slog.String("kind", string(n.Kind)),
			slog.Int64("order_id", n.OrderID),
			slog.String("error", err.Error()),
		)
	}
}

func orderNotification(kind model.NotificationKind, order *model.Order, message string) model.Notification {
	return model.Notification{
		Kind:        kind,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OrderStatus: order.Status,
		Email:       order.ContactEmail,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Message:     message,
	}
}
