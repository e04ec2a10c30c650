package dto

import "github.com/shopspring/decimal"

// Error codes returned in ErrorResponse.Error.
const (
	CodeValidation         = "validation_error"
	CodeAmountMismatch     = "amount_mismatch"
	CodeMethodLimit        = "amount_exceeds_method_limit"
	CodeInsufficientStock  = "insufficient_stock"
	CodeEmptyCart          = "empty_cart"
	CodeGatewayError       = "gateway_error"
	CodeGatewayUnavailable = "gateway_unavailable"
	CodeInvalidSignature   = "invalid_signature"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeUnauthorized       = "unauthorized"
	CodePayloadTooLarge    = "payload_too_large"
	CodeInternal           = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`

	OrderID      int64            `json:"order_id,omitempty"`
	ClientAmount *decimal.Decimal `json:"client_amount,omitempty"`
	ServerAmount *decimal.Decimal `json:"server_amount,omitempty"`
	Limit        *decimal.Decimal `json:"limit,omitempty"`
	Suggestions  []string         `json:"suggestions,omitempty"`
	Items        []StockShortage  `json:"items,omitempty"`
}

// StockShortage names one line that cannot be served.
type StockShortage struct {
	ProductID int64  `json:"product_id"`
	ColorID   *int64 `json:"color_id,omitempty"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}
