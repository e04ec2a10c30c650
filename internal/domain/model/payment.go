package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus describes one collection attempt lifecycle.
type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// Payment is one attempt to collect money for an order through the gateway.
type Payment struct {
	ID           int64
	OrderID      int64
	Attempt      int
	Method       string
	Amount       decimal.Decimal
	Currency     string
	Reference    string
	ExternalID   string
	CheckoutURL  string
	Status       PaymentStatus
	RequestData  *RequestData
	LastResponse json.RawMessage
	PollCount    int
	LastPolledAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConfirmationSource names the channel that produced a confirmation event.
type ConfirmationSource string

const (
	SourceCheckout ConfirmationSource = "checkout"
	SourceWebhook  ConfirmationSource = "webhook"
	SourcePoll     ConfirmationSource = "poll"
	SourceSweeper  ConfirmationSource = "sweeper"
)
