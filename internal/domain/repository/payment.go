package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// PaymentRepository persists payment attempts. Every status write is conditioned on
// the previous status.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id int64) (*model.Payment, error)
	GetForUpdate(ctx context.Context, id int64) (*model.Payment, error)
	GetByReference(ctx context.Context, reference string) (*model.Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.Payment, error)
	LatestByOrder(ctx context.Context, orderID int64) (*model.Payment, error)
	// MarkSubmitted stores gateway identifiers and moves an initiated payment to
	// pending. It returns the status after the update.
	MarkSubmitted(ctx context.Context, id int64, externalID, checkoutURL string, response json.RawMessage) (model.PaymentStatus, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.PaymentStatus, response json.RawMessage) (bool, error)
	// RecordPoll increments poll_count of a non-terminal payment and returns the new
	// count; ErrNotFound when the payment is terminal or missing.
	RecordPoll(ctx context.Context, id int64, at time.Time) (int, error)
	AppendResponse(ctx context.Context, id int64, response json.RawMessage) error
	// MarkStockAlerted stamps the first stock shortage alert of a payment. It reports
	// false when the payment was already alerted.
	MarkStockAlerted(ctx context.Context, id int64, at time.Time) (bool, error)
	// MarkSwept records that the sweeper visited the payment.
	MarkSwept(ctx context.Context, id int64, at time.Time) error
	// ListStale returns open payments created before createdBefore, least recently
	// swept first.
	ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]model.Payment, error)
}
