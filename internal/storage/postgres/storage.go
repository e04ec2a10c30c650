package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

const uniqueViolation = "23505"

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxPool interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

var _ repository.Store = (*Storage)(nil)

// New creates storage connected to dsn. The schema is managed by the migrator.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	return &Storage{pool: pool, logger: logger}, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories outside a transaction.
func (s *Storage) Carts() repository.CartRepository       { return repositories{q: s.pool}.Carts() }
func (s *Storage) Orders() repository.OrderRepository     { return repositories{q: s.pool}.Orders() }
func (s *Storage) Payments() repository.PaymentRepository { return repositories{q: s.pool}.Payments() }
func (s *Storage) Stock() repository.StockRepository      { return repositories{q: s.pool}.Stock() }
func (s *Storage) Catalog() repository.Catalog            { return repositories{q: s.pool}.Catalog() }

// WithinTransaction runs fn with repositories bound to a single transaction.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(repos repository.Factory) error) error {
	return s.withinTx(ctx, func(tx pgx.Tx) error {
		return fn(repositories{q: tx})
	})
}

func (s *Storage) withinTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

type repositories struct {
	q querier
}

func (r repositories) Carts() repository.CartRepository       { return &cartRepository{q: r.q} }
func (r repositories) Orders() repository.OrderRepository     { return &orderRepository{q: r.q} }
func (r repositories) Payments() repository.PaymentRepository { return &paymentRepository{q: r.q} }
func (r repositories) Stock() repository.StockRepository      { return &stockRepository{q: r.q} }
func (r repositories) Catalog() repository.Catalog            { return &catalogRepository{q: r.q} }

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// jsonArg returns raw as a jsonb parameter, or NULL when empty.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
