package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusFailed:     {OrderStatusPending, OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransition reports whether the order state machine allows from → to.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Stocked reports whether stock was debited for an order in this status.
func (s OrderStatus) Stocked() bool {
	switch s {
	case OrderStatusPaid, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Order is the durable record of one checkout attempt.
type Order struct {
	ID              int64
	Number          string
	UserID          *int64
	SessionKey      string
	CartID          *int64
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingCost    decimal.Decimal
	Currency        string
	ShippingAddress Address
	BillingAddress  Address
	ShippingMethod  string
	ContactEmail    string
	TrackingNumber  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is an immutable line snapshot captured at purchase time.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID *int64
	Name      string
	SKU       string
	ImageURL  string
	ColorID   *int64
	ColorName string
	ColorHex  string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
