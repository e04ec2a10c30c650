package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// InitiateRequest is the body of POST /payments/initiate and /payments/retry/:order_id.
type InitiateRequest struct {
	Method          string           `json:"method" binding:"omitempty,max=32"`
	Phone           string           `json:"phone" binding:"omitempty,max=32"`
	CardToken       string           `json:"card_token" binding:"omitempty,max=256"`
	Amount          *decimal.Decimal `json:"amount" binding:"omitempty,positive_decimal"`
	ShippingAmount  *decimal.Decimal `json:"shipping_amount" binding:"omitempty,nonnegative_decimal"`
	Currency        string           `json:"currency" binding:"omitempty,iso4217"`
	Email           string           `json:"email" binding:"omitempty,email"`
	ShippingAddress model.Address    `json:"shipping_address"`
	BillingAddress  model.Address    `json:"billing_address"`
	ShippingMethod  string           `json:"shipping_method" binding:"omitempty,max=64"`
}

// PaymentSummary is the payment part of an initiate response.
type PaymentSummary struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	IsDirect    bool   `json:"is_direct"`
	Method      string `json:"method"`
	Status      string `json:"status"`
}

// InitiateResponse is returned when an order and its payment attempt were created.
type InitiateResponse struct {
	OrderID     int64          `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Payment     PaymentSummary `json:"payment"`
}

// OrderResponse describes an order.
type OrderResponse struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Currency        string          `json:"currency"`
	ShippingAddress model.Address   `json:"shipping_address"`
	BillingAddress  model.Address   `json:"billing_address"`
	ShippingMethod  string          `json:"shipping_method,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItemResponse describes one purchased line.
type OrderItemResponse struct {
	ProductID *int64          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	ImageURL  string          `json:"image_url,omitempty"`
	ColorID   *int64          `json:"color_id"`
	ColorName string          `json:"color_name,omitempty"`
	ColorHex  string          `json:"color_hex,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PaymentResponse describes one payment attempt.
type PaymentResponse struct {
	ID           int64           `json:"id"`
	Attempt      int             `json:"attempt"`
	Method       string          `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Reference    string          `json:"reference"`
	CheckoutURL  string          `json:"checkout_url,omitempty"`
	Status       string          `json:"status"`
	PollCount    int             `json:"poll_count"`
	LastResponse json.RawMessage `json:"last_response,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StatusResponse is returned by GET /payments/status/:order_id.
type StatusResponse struct {
	Order    OrderResponse       `json:"order"`
	Items    []OrderItemResponse `json:"items"`
	Payments []PaymentResponse   `json:"payments"`
}

// CancelResponse is returned by POST /orders/:order_id/cancel.
type CancelResponse struct {
	Order OrderResponse `json:"order"`
}

// WebhookAck acknowledges a processed webhook delivery.
type WebhookAck struct {
	OK      bool `json:"ok"`
	Ignored bool `json:"ignored,omitempty"`
}
