package repository

import (
	"context"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// CartRepository persists carts and their lines. Lookups of active carts lock the
// cart row when executed inside a transaction.
type CartRepository interface {
	ActiveByUser(ctx context.Context, userID int64) (*model.Cart, error)
	// ActiveBySession returns the active guest cart (no user attached) for a session key.
	ActiveBySession(ctx context.Context, sessionKey string) (*model.Cart, error)
	GetByID(ctx context.Context, id int64) (*model.Cart, error)
	Create(ctx context.Context, userID *int64, sessionKey string) (*model.Cart, error)
	AttachUser(ctx context.Context, cartID, userID int64) error
	SetStatus(ctx context.Context, cartID int64, from, to model.CartStatus) (bool, error)
	SaveTotals(ctx context.Context, cart *model.Cart) error
	// AddLine inserts a line or adds its quantity to the existing (product, color) line.
	AddLine(ctx context.Context, cartID int64, line model.CartLine) error
	UpdateLine(ctx context.Context, line model.CartLine) error
	DeleteLine(ctx context.Context, cartID, lineID int64) error
	ClearLines(ctx context.Context, cartID int64) error
	ListIdle(ctx context.Context, before time.Time, limit int) ([]int64, error)
}
