package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrUnknownMethod       = errors.New("unknown payment method")
	ErrInvalidPhone        = errors.New("invalid phone number")
	ErrCarrierMismatch     = errors.New("phone number does not belong to payment method carrier")
	ErrMissingCardToken    = errors.New("card token is required")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidCoupon       = errors.New("invalid coupon")
	ErrPaymentOutstanding  = errors.New("order has an outstanding payment")
	ErrOrderNotPayable     = errors.New("order cannot accept a new payment")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrGatewayRejected     = errors.New("payment rejected by gateway")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrUnknownReference    = errors.New("payment reference unknown to gateway")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrProductUnavailable  = errors.New("product is no longer available")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrUnidentified        = errors.New("caller has neither user nor session")
)

// AmountMismatchError reports a client-declared total that differs from the server total.
type AmountMismatchError struct {
	Client decimal.Decimal
	Server decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: client %s, server %s", e.Client.StringFixed(2), e.Server.StringFixed(2))
}

// MethodLimitError reports an amount above the ceiling of the selected payment method.
type MethodLimitError struct {
	Method      string
	Limit       decimal.Decimal
	Amount      decimal.Decimal
	Suggestions []string
}

func (e *MethodLimitError) Error() string {
	return fmt.Sprintf("amount %s exceeds %s limit of %s", e.Amount.StringFixed(2), e.Method, e.Limit.StringFixed(2))
}

// StockShortage describes one line that cannot be served from current stock.
type StockShortage struct {
	ProductID int64
	ColorID   *int64
	Name      string
	Requested int
	Available int
}

// InsufficientStockError lists every line whose stock is below the requested quantity.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (product %d): requested %d, available %d", s.Name, s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// GatewayError carries the provider message back to the HTTP caller.
type GatewayError struct {
	OrderID int64
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// GatewayRejectionError is a business refusal returned by the provider.
type GatewayRejectionError struct {
	Code    string
	Message string
	Raw     json.RawMessage
}

func (e *GatewayRejectionError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *GatewayRejectionError) Unwrap() error { return ErrGatewayRejected }

// GatewayNetworkError wraps transport failures, timeouts and provider 5xx answers.
type GatewayNetworkError struct {
	Op  string
	Err error
}

func (e *GatewayNetworkError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayNetworkError) Unwrap() []error { return []error{ErrGatewayUnavailable, e.Err} }
