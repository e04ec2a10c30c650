package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus describes cart lifecycle.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusConverted CartStatus = "converted"
	CartStatusExpired   CartStatus = "expired"
)

// Cart is the mutable working set of lines for one user or anonymous session.
type Cart struct {
	ID             int64
	UserID         *int64
	SessionKey     string
	Status         CartStatus
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	CouponCode     string
	CouponPercent  decimal.Decimal
	LastActivityAt time.Time
	CreatedAt      time.Time
	Lines          []CartLine
}

// CartLine is unique per (cart, product, color).
type CartLine struct {
	ID        int64
	CartID    int64
	ProductID int64
	ColorID   *int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity × unit price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SameItem reports whether two lines refer to the same product and color.
func (l CartLine) SameItem(productID int64, colorID *int64) bool {
	if l.ProductID != productID {
		return false
	}
	if l.ColorID == nil || colorID == nil {
		return l.ColorID == nil && colorID == nil
	}
	return *l.ColorID == *colorID
}

// Recalculate recomputes subtotal, discount and total from the current lines.
func (c *Cart) Recalculate() {
	subtotal := decimal.Zero
	for _, line := range c.Lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	discount := decimal.Zero
	if c.CouponPercent.IsPositive() {
		discount = subtotal.Mul(c.CouponPercent).Div(decimal.NewFromInt(100)).Round(2)
	}
	c.Subtotal = subtotal.Round(2)
	c.Discount = discount
	c.Total = c.Subtotal.Sub(discount)
	if c.Total.IsNegative() {
		c.Total = decimal.Zero
	}
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}
