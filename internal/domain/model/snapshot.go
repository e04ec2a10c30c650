package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Address is a checkout-time address snapshot, never re-derived from an address book.
type Address struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// RequestItem is one captured line of the payment request payload.
type RequestItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	ImageURL  string          `json:"image_url,omitempty"`
	ColorID   *int64          `json:"color_id"`
	ColorName string          `json:"color_name,omitempty"`
	ColorHex  string          `json:"color_hex,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// RequestData is the payload captured when a payment is created. It is the source of
// truth for order item recovery and for replaying an attempt.
type RequestData struct {
	Items           []RequestItem `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	BillingAddress  Address       `json:"billing_address"`
	ShippingMethod  string        `json:"shipping_method,omitempty"`
	ContactEmail    string        `json:"contact_email,omitempty"`
	Phone           string        `json:"phone,omitempty"`
}

// ParseRequestData decodes stored request data; empty input yields nil.
func ParseRequestData(raw []byte) (*RequestData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var data RequestData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
