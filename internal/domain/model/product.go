package model

import "github.com/shopspring/decimal"

// CatalogItem is the live catalog view of a product, optionally narrowed to a color.
type CatalogItem struct {
	ProductID int64
	ColorID   *int64
	Name      string
	SKU       string
	ImageURL  string
	ColorName string
	ColorHex  string
	Price     decimal.Decimal
	Active    bool
}

// Coupon is a percentage discount applicable to a cart.
type Coupon struct {
	Code       string
	PercentOff decimal.Decimal
	Active     bool
}
