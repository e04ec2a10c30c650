package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// GatewayState is the provider-reported state of a payment.
type GatewayState string

const (
	GatewayStatePending   GatewayState = "pending"
	GatewayStateSucceeded GatewayState = "succeeded"
	GatewayStateFailed    GatewayState = "failed"
	GatewayStateExpired   GatewayState = "expired"
)

// ChargeRequest is sent to the gateway to open a payment.
type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Method      string
	Reference   string
	CallbackURL string
	ReturnURL   string
	Metadata    map[string]string
	Phone       string
	CardToken   string
}

// ChargeResult is the accepted gateway response.
type ChargeResult struct {
	ExternalID  string
	Reference   string
	CheckoutURL string
	Raw         json.RawMessage
}

// GatewayStatus is the gateway view of an existing payment.
type GatewayStatus struct {
	ExternalID string
	Reference  string
	State      GatewayState
	Amount     *decimal.Decimal
	Raw        json.RawMessage
}

// NotificationKind names the event sent to the notification dispatcher.
type NotificationKind string

const (
	NotifyPaymentPaid    NotificationKind = "payment_paid"
	NotifyPaymentFailed  NotificationKind = "payment_failed"
	NotifyOrderCancelled NotificationKind = "order_cancelled"
	NotifyOperatorAlert  NotificationKind = "operator_alert"
)

// Notification is handed to the external dispatcher.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	OrderID     int64            `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	OrderStatus OrderStatus      `json:"order_status"`
	PaymentID   int64            `json:"payment_id,omitempty"`
	Email       string           `json:"email,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency"`
	Message     string           `json:"message,omitempty"`
}
