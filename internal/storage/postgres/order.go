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

type orderRepository struct {
	q querier
}

const orderColumns = `id, number, user_id, session_key, cart_id, status, total_amount, shipping_cost, currency,
       shipping_address, billing_address, shipping_method, contact_email, tracking_number, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                 model.Order
		shipping, billing []byte
	)
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.SessionKey, &o.CartID, &o.Status, &o.TotalAmount, &o.ShippingCost,
		&o.Currency, &shipping, &billing, &o.ShippingMethod, &o.ContactEmail, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := unmarshalAddress(shipping, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := unmarshalAddress(billing, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	return &o, nil
}

func unmarshalAddress(raw []byte, addr *model.Address) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, addr)
}

func (r *orderRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	const query = `INSERT INTO order_counters (day, last_value) VALUES ($1::date, 1)
                   ON CONFLICT (day) DO UPDATE SET last_value = order_counters.last_value + 1
                   RETURNING last_value`
	var seq int
	if err := r.q.QueryRow(ctx, query, day.Format(time.DateOnly)).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next order sequence: %w", err)
	}
	return seq, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}
	billing, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return err
	}

	const query = `INSERT INTO orders (number, user_id, session_key, cart_id, status, total_amount, shipping_cost, currency,
                       shipping_address, billing_address, shipping_method, contact_email)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
                   RETURNING id, created_at, updated_at`
	err = r.q.QueryRow(ctx, query,
		order.Number, order.UserID, order.SessionKey, order.CartID, order.Status, order.TotalAmount, order.ShippingCost,
		order.Currency, shipping, billing, order.ShippingMethod, order.ContactEmail,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id))
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus) (bool, error) {
	const query = `UPDATE orders SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	tag, err := r.q.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) Items(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	const query = `SELECT id, order_id, product_id, name, sku, image_url, color_id, color_name, color_hex, quantity, unit_price, subtotal
                   FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.SKU, &it.ImageURL, &it.ColorID,
			&it.ColorName, &it.ColorHex, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) AddItems(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	const query = `INSERT INTO order_items (order_id, product_id, name, sku, image_url, color_id, color_name, color_hex,
                       quantity, unit_price, subtotal)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                   RETURNING id`
	stored := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		it.OrderID = orderID
		err := r.q.QueryRow(ctx, query, orderID, it.ProductID, it.Name, it.SKU, it.ImageURL, it.ColorID,
			it.ColorName, it.ColorHex, it.Quantity, it.UnitPrice, it.Subtotal).Scan(&it.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		stored = append(stored, it)
	}
	return stored, nil
}
