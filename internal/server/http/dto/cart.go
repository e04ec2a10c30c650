package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product, optionally in a color, to the cart.
type AddItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	ColorID   *int64 `json:"color_id" binding:"omitempty,gt=0"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,lte=1000"`
}

// UpdateItemRequest sets a line quantity; zero removes the line.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0,lte=1000"`
}

// CouponRequest applies a coupon code.
type CouponRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

// CartLineResponse describes one cart line.
type CartLineResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	ColorID   *int64          `json:"color_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse describes the caller's cart.
type CartResponse struct {
	ID             int64              `json:"id"`
	Status         string             `json:"status"`
	Lines          []CartLineResponse `json:"lines"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Discount       decimal.Decimal    `json:"discount"`
	Total          decimal.Decimal    `json:"total"`
	CouponCode     string             `json:"coupon_code,omitempty"`
	LastActivityAt time.Time          `json:"last_activity_at"`
}
