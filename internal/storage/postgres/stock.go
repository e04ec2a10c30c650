package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

type stockRepository struct {
	q querier
}

// Stock lives on the product row, or on the color row when a color is given.
const (
	productStockQuery = `SELECT stock FROM products WHERE id=$1`
	colorStockQuery   = `SELECT stock FROM product_colors WHERE product_id=$1 AND id=$2`
)

func (r *stockRepository) read(ctx context.Context, productID int64, colorID *int64, lock bool) (int, error) {
	query, args := productStockQuery, []any{productID}
	if colorID != nil {
		query, args = colorStockQuery, []any{productID, *colorID}
	}
	if lock {
		query += ` FOR UPDATE`
	}

	var stock int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&stock); err != nil {
		return 0, notFound(err)
	}
	return stock, nil
}

func (r *stockRepository) Lock(ctx context.Context, productID int64, colorID *int64) (int, error) {
	return r.read(ctx, productID, colorID, true)
}

func (r *stockRepository) Available(ctx context.Context, productID int64, colorID *int64) (int, error) {
	return r.read(ctx, productID, colorID, false)
}

func (r *stockRepository) Set(ctx context.Context, productID int64, colorID *int64, stock int) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if colorID == nil {
		tag, err = r.q.Exec(ctx, `UPDATE products SET stock=$2 WHERE id=$1`, productID, stock)
	} else {
		tag, err = r.q.Exec(ctx, `UPDATE product_colors SET stock=$3 WHERE product_id=$1 AND id=$2`, productID, *colorID, stock)
	}
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *stockRepository) AppendMovement(ctx context.Context, m *model.StockMovement) error {
	const query = `INSERT INTO stock_movements (product_id, color_id, order_id, kind, delta, previous_stock, new_stock, note)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                   RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, m.ProductID, m.ColorID, m.OrderID, m.Kind, m.Delta, m.PreviousStock, m.NewStock, m.Note).
		Scan(&m.ID, &m.CreatedAt)
}

func (r *stockRepository) MovementsByOrder(ctx context.Context, orderID int64) ([]model.StockMovement, error) {
	const query = `SELECT id, product_id, color_id, order_id, kind, delta, previous_stock, new_stock, note, created_at
                   FROM stock_movements WHERE order_id=$1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StockMovement
	for rows.Next() {
		var m model.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ColorID, &m.OrderID, &m.Kind, &m.Delta, &m.PreviousStock,
			&m.NewStock, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type catalogRepository struct {
	q querier
}

func (r *catalogRepository) Item(ctx context.Context, productID int64, colorID *int64) (*model.CatalogItem, error) {
	item := model.CatalogItem{ProductID: productID}
	var row pgx.Row
	if colorID == nil {
		const query = `SELECT name, sku, image_url, '', '', price, active FROM products WHERE id=$1`
		row = r.q.QueryRow(ctx, query, productID)
	} else {
		const query = `SELECT p.name, p.sku, COALESCE(NULLIF(c.image_url, ''), p.image_url), c.name, c.hex,
                              COALESCE(c.price, p.price), p.active AND c.active
                       FROM product_colors c JOIN products p ON p.id = c.product_id
                       WHERE c.product_id=$1 AND c.id=$2`
		row = r.q.QueryRow(ctx, query, productID, *colorID)
		color := *colorID
		item.ColorID = &color
	}

	err := row.Scan(&item.Name, &item.SKU, &item.ImageURL, &item.ColorName, &item.ColorHex, &item.Price, &item.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *catalogRepository) Coupon(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := r.q.QueryRow(ctx, `SELECT code, percent_off, active FROM coupons WHERE code=$1`, code).
		Scan(&c.Code, &c.PercentOff, &c.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}
