package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

type paymentRepository struct {
	q querier
}

const paymentColumns = `id, order_id, attempt, method, amount, currency, reference, external_id, checkout_url, status,
       request_data, last_response, poll_count, last_polled_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p                 model.Payment
		request, response []byte
	)
	err := row.Scan(&p.ID, &p.OrderID, &p.Attempt, &p.Method, &p.Amount, &p.Currency, &p.Reference, &p.ExternalID,
		&p.CheckoutURL, &p.Status, &request, &response, &p.PollCount, &p.LastPolledAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.RequestData, err = model.ParseRequestData(request); err != nil {
		return nil, fmt.Errorf("decode request data of payment %d: %w", p.ID, err)
	}
	if len(response) > 0 {
		p.LastResponse = json.RawMessage(response)
	}
	return &p, nil
}

func (r *paymentRepository) one(ctx context.Context, query string, args ...any) (*model.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]model.Payment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	var request any
	if payment.RequestData != nil {
		raw, err := json.Marshal(payment.RequestData)
		if err != nil {
			return fmt.Errorf("encode request data: %w", err)
		}
		request = raw
	}

	const query = `INSERT INTO payments (order_id, attempt, method, amount, currency, reference, status, request_data)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                   RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, payment.OrderID, payment.Attempt, payment.Method, payment.Amount,
		payment.Currency, payment.Reference, payment.Status, request,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, id int64) (*model.Payment, error) {
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1 FOR UPDATE`, id)
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*model.Payment, error) {
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference=$1`, reference)
}

func (r *paymentRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Payment, error) {
	if externalID == "" {
		return nil, domainErrors.ErrNotFound
	}
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_id=$1 ORDER BY id DESC LIMIT 1`, externalID)
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id=$1 ORDER BY attempt`, orderID)
}

func (r *paymentRepository) LatestByOrder(ctx context.Context, orderID int64) (*model.Payment, error) {
	return r.one(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id=$1 ORDER BY attempt DESC LIMIT 1`, orderID)
}

func (r *paymentRepository) MarkSubmitted(ctx context.Context, id int64, externalID, checkoutURL string, response json.RawMessage) (model.PaymentStatus, error) {
	const query = `UPDATE payments SET
                       external_id=$2,
                       checkout_url=$3,
                       status=CASE WHEN status='initiated' THEN 'pending' ELSE status END,
                       last_response=COALESCE($4::jsonb, last_response),
                       response_history=CASE WHEN $4::jsonb IS NULL THEN response_history
                           ELSE response_history || jsonb_build_array($4::jsonb) END,
                       updated_at=NOW()
                   WHERE id=$1
                   RETURNING status`
	var status model.PaymentStatus
	if err := r.q.QueryRow(ctx, query, id, externalID, checkoutURL, jsonArg(response)).Scan(&status); err != nil {
		return "", notFound(err)
	}
	return status, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id int64, from, to model.PaymentStatus, response json.RawMessage) (bool, error) {
	const query = `UPDATE payments SET
                       status=$3,
                       last_response=COALESCE($4::jsonb, last_response),
                       response_history=CASE WHEN $4::jsonb IS NULL THEN response_history
                           ELSE response_history || jsonb_build_array($4::jsonb) END,
                       updated_at=NOW()
                   WHERE id=$1 AND status=$2`
	tag, err := r.q.Exec(ctx, query, id, from, to, jsonArg(response))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepository) RecordPoll(ctx context.Context, id int64, at time.Time) (int, error) {
	const query = `UPDATE payments SET poll_count=poll_count+1, last_polled_at=$2
                   WHERE id=$1 AND status IN ('initiated', 'pending')
                   RETURNING poll_count`
	var count int
	if err := r.q.QueryRow(ctx, query, id, at).Scan(&count); err != nil {
		return 0, notFound(err)
	}
	return count, nil
}

func (r *paymentRepository) AppendResponse(ctx context.Context, id int64, response json.RawMessage) error {
	const query = `UPDATE payments SET
                       last_response=$2::jsonb,
                       response_history=response_history || jsonb_build_array($2::jsonb),
                       updated_at=NOW()
                   WHERE id=$1`
	tag, err := r.q.Exec(ctx, query, id, jsonArg(response))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) MarkStockAlerted(ctx context.Context, id int64, at time.Time) (bool, error) {
	const query = `UPDATE payments SET stock_alerted_at=$2 WHERE id=$1 AND stock_alerted_at IS NULL`
	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepository) MarkSwept(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE payments SET last_swept_at=$2 WHERE id=$1`
	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]model.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments
                   WHERE status IN ('initiated', 'pending') AND created_at < $1
                   ORDER BY last_swept_at NULLS FIRST, id LIMIT $2`
	return r.list(ctx, query, createdBefore, limit)
}
