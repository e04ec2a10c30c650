package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

type cartRepository struct {
	q querier
}

const cartColumns = `id, user_id, session_key, status, subtotal, discount, total, coupon_code, coupon_percent, last_activity_at, created_at`

func scanCart(row pgx.Row) (*model.Cart, error) {
	var c model.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.SessionKey, &c.Status, &c.Subtotal, &c.Discount, &c.Total,
		&c.CouponCode, &c.CouponPercent, &c.LastActivityAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// one loads a single cart with its lines.
func (r *cartRepository) one(ctx context.Context, query string, args ...any) (*model.Cart, error) {
	cart, err := scanCart(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	if cart.Lines, err = r.lines(ctx, cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) lines(ctx context.Context, cartID int64) ([]model.CartLine, error) {
	const query = `SELECT id, cart_id, product_id, color_id, quantity, unit_price
                   FROM cart_lines WHERE cart_id=$1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.ColorID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *cartRepository) ActiveByUser(ctx context.Context, userID int64) (*model.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts
              WHERE user_id=$1 AND status='active' ORDER BY id DESC LIMIT 1 FOR UPDATE`
	return r.one(ctx, query, userID)
}

func (r *cartRepository) ActiveBySession(ctx context.Context, sessionKey string) (*model.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts
              WHERE session_key=$1 AND user_id IS NULL AND status='active' ORDER BY id DESC LIMIT 1 FOR UPDATE`
	return r.one(ctx, query, sessionKey)
}

func (r *cartRepository) GetByID(ctx context.Context, id int64) (*model.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id=$1`
	return r.one(ctx, query, id)
}

func (r *cartRepository) Create(ctx context.Context, userID *int64, sessionKey string) (*model.Cart, error) {
	query := `INSERT INTO carts (user_id, session_key, status) VALUES ($1, $2, $3) RETURNING ` + cartColumns
	cart, err := scanCart(r.q.QueryRow(ctx, query, userID, sessionKey, model.CartStatusActive))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) AttachUser(ctx context.Context, cartID, userID int64) error {
	const query = `UPDATE carts SET user_id=$2, last_activity_at=NOW() WHERE id=$1`
	tag, err := r.q.Exec(ctx, query, cartID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) SetStatus(ctx context.Context, cartID int64, from, to model.CartStatus) (bool, error) {
	const query = `UPDATE carts SET status=$3 WHERE id=$1 AND status=$2`
	tag, err := r.q.Exec(ctx, query, cartID, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *cartRepository) SaveTotals(ctx context.Context, cart *model.Cart) error {
	const query = `UPDATE carts SET subtotal=$2, discount=$3, total=$4, coupon_code=$5, coupon_percent=$6, last_activity_at=NOW()
                   WHERE id=$1`
	tag, err := r.q.Exec(ctx, query, cart.ID, cart.Subtotal, cart.Discount, cart.Total, cart.CouponCode, cart.CouponPercent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) AddLine(ctx context.Context, cartID int64, line model.CartLine) error {
	const query = `INSERT INTO cart_lines (cart_id, product_id, color_id, quantity, unit_price)
                   VALUES ($1, $2, $3, $4, $5)
                   ON CONFLICT (cart_id, product_id, (COALESCE(color_id, 0))) DO UPDATE
                   SET quantity = cart_lines.quantity + EXCLUDED.quantity, unit_price = EXCLUDED.unit_price`
	if _, err := r.q.Exec(ctx, query, cartID, line.ProductID, line.ColorID, line.Quantity, line.UnitPrice); err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateLine(ctx context.Context, line model.CartLine) error {
	const query = `UPDATE cart_lines SET quantity=$2, unit_price=$3 WHERE id=$1`
	tag, err := r.q.Exec(ctx, query, line.ID, line.Quantity, line.UnitPrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, cartID, lineID int64) error {
	const query = `DELETE FROM cart_lines WHERE id=$1 AND cart_id=$2`
	tag, err := r.q.Exec(ctx, query, lineID, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id=$1`, cartID)
	return err
}

func (r *cartRepository) ListIdle(ctx context.Context, before time.Time, limit int) ([]int64, error) {
	const query = `SELECT id FROM carts WHERE status='active' AND last_activity_at < $1 ORDER BY id LIMIT $2`
	rows, err := r.q.Query(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
