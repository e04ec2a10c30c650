package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/config"
	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

// ResolveCart returns the active cart for actor, creating or merging carts as needed.
//
// A guest session cart with lines is merged into the user's cart when both exist:
// quantities of matching (product, color) lines are summed, other lines are copied,
// and the session cart is emptied and marked converted. Without a user cart the
// session cart is attached to the user.
func ResolveCart(ctx context.Context, repos repository.Factory, actor model.Actor) (*model.Cart, error) {
	carts := repos.Carts()

	var session *model.Cart
	if actor.SessionKey != "" {
		c, err := carts.ActiveBySession(ctx, actor.SessionKey)
		if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, fmt.Errorf("load session cart: %w", err)
		}
		session = c
	}

	if !actor.Authenticated() {
		if session != nil {
			return session, nil
		}
		if actor.SessionKey == "" {
			return nil, domainErrors.ErrUnidentified
		}
		return createCart(ctx, carts, actor)
	}

	userID := *actor.UserID
	user, err := carts.ActiveByUser(ctx, userID)
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, fmt.Errorf("load user cart: %w", err)
	}

	switch {
	case user != nil && session != nil && !session.Empty():
		return mergeCarts(ctx, carts, user, session)
	case user != nil:
		return user, nil
	case session != nil:
		if err := carts.AttachUser(ctx, session.ID, userID); err != nil {
			return nil, fmt.Errorf("attach session cart: %w", err)
		}
		session.UserID = &userID
		return session, nil
	default:
		return createCart(ctx, carts, actor)
	}
}

func mergeCarts(ctx context.Context, carts repository.CartRepository, user, session *model.Cart) (*model.Cart, error) {
	for _, line := range session.Lines {
		if err := carts.AddLine(ctx, user.ID, line); err != nil {
			return nil, fmt.Errorf("merge cart line: %w", err)
		}
	}
	if err := carts.ClearLines(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("clear session cart: %w", err)
	}
	if _, err := carts.SetStatus(ctx, session.ID, model.CartStatusActive, model.CartStatusConverted); err != nil {
		return nil, fmt.Errorf("convert session cart: %w", err)
	}

	merged, err := carts.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	merged.Recalculate()
	if err := carts.SaveTotals(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func createCart(ctx context.Context, carts repository.CartRepository, actor model.Actor) (*model.Cart, error) {
	cart, err := carts.Create(ctx, actor.UserID, actor.SessionKey)
	if !errors.Is(err, domainErrors.ErrAlreadyExists) {
		return cart, err
	}
	// A concurrent request created the cart first.
	if actor.Authenticated() {
		return carts.ActiveByUser(ctx, *actor.UserID)
	}
	return carts.ActiveBySession(ctx, actor.SessionKey)
}

// CartUseCase implements cart operations that feed checkout.
type CartUseCase struct {
	store   repository.Store
	idleTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewCartUseCase constructs CartUseCase.
func NewCartUseCase(store repository.Store, policy *config.Policy, logger *slog.Logger) *CartUseCase {
	return &CartUseCase{store: store, idleTTL: policy.CartIdleTTL, logger: logger, now: time.Now}
}

// View returns the actor's cart with fresh totals.
func (u *CartUseCase) View(ctx context.Context, actor model.Actor) (*model.Cart, error) {
	return u.mutate(ctx, actor, func(repository.Factory, *model.Cart) error { return nil })
}

// AddItem adds quantity of a catalog item, summing with an existing line.
func (u *CartUseCase) AddItem(ctx context.Context, actor model.Actor, productID int64, colorID *int64, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	return u.mutate(ctx, actor, func(repos repository.Factory, cart *model.Cart) error {
		item, err := repos.Catalog().Item(ctx, productID, colorID)
		if errors.Is(err, domainErrors.ErrNotFound) || (err == nil && !item.Active) {
			return domainErrors.ErrProductUnavailable
		}
		if err != nil {
			return err
		}
		return repos.Carts().AddLine(ctx, cart.ID, model.CartLine{
			CartID:    cart.ID,
			ProductID: productID,
			ColorID:   colorID,
			Quantity:  quantity,
			UnitPrice: item.Price,
		})
	})
}

// UpdateQuantity sets the quantity of a line; zero removes it.
func (u *CartUseCase) UpdateQuantity(ctx context.Context, actor model.Actor, lineID int64, quantity int) (*model.Cart, error) {
	if quantity < 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	return u.mutate(ctx, actor, func(repos repository.Factory, cart *model.Cart) error {
		line, ok := findLine(cart, lineID)
		if !ok {
			return domainErrors.ErrNotFound
		}
		if quantity == 0 {
			return repos.Carts().DeleteLine(ctx, cart.ID, lineID)
		}
		line.Quantity = quantity
		return repos.Carts().UpdateLine(ctx, line)
	})
}

// RemoveItem deletes a line from the cart.
func (u *CartUseCase) RemoveItem(ctx context.Context, actor model.Actor, lineID int64) (*model.Cart, error) {
	return u.mutate(ctx, actor, func(repos repository.Factory, cart *model.Cart) error {
		if _, ok := findLine(cart, lineID); !ok {
			return domainErrors.ErrNotFound
		}
		return repos.Carts().DeleteLine(ctx, cart.ID, lineID)
	})
}

// ApplyCoupon sets the cart coupon; an empty code removes it.
func (u *CartUseCase) ApplyCoupon(ctx context.Context, actor model.Actor, code string) (*model.Cart, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return u.mutate(ctx, actor, func(repos repository.Factory, cart *model.Cart) error {
		if code == "" {
			cart.CouponCode = ""
			cart.CouponPercent = decimal.Zero
			return nil
		}
		coupon, err := repos.Catalog().Coupon(ctx, code)
		if errors.Is(err, domainErrors.ErrNotFound) || (err == nil && !coupon.Active) {
			return domainErrors.ErrInvalidCoupon
		}
		if err != nil {
			return err
		}
		cart.CouponCode = coupon.Code
		cart.CouponPercent = coupon.PercentOff
		return nil
	})
}

// ReapIdle marks active carts without activity for the idle TTL as abandoned.
func (u *CartUseCase) ReapIdle(ctx context.Context, limit int) (int, error) {
	ids, err := u.store.Carts().ListIdle(ctx, u.now().Add(-u.idleTTL), limit)
	if err != nil {
		return 0, fmt.Errorf("list idle carts: %w", err)
	}
	reaped := 0
	for _, id := range ids {
		ok, err := u.store.Carts().SetStatus(ctx, id, model.CartStatusActive, model.CartStatusAbandoned)
		if err != nil {
			return reaped, fmt.Errorf("abandon cart %d: %w", id, err)
		}
		if ok {
			reaped++
		}
	}
	if reaped > 0 {
		u.logger.Info("idle carts abandoned", slog.Int("count", reaped))
	}
	return reaped, nil
}

func (u *CartUseCase) mutate(ctx context.Context, actor model.Actor, fn func(repository.Factory, *model.Cart) error) (*model.Cart, error) {
	var out *model.Cart
	err := u.store.WithinTransaction(ctx, func(repos repository.Factory) error {
		cart, err := ResolveCart(ctx, repos, actor)
		if err != nil {
			return err
		}
		if err := fn(repos, cart); err != nil {
			return err
		}
		fresh, err := repos.Carts().GetByID(ctx, cart.ID)
		if err != nil {
			return err
		}
		fresh.CouponCode, fresh.CouponPercent = cart.CouponCode, cart.CouponPercent
		fresh.Recalculate()
		if err := repos.Carts().SaveTotals(ctx, fresh); err != nil {
			return err
		}
		out = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func findLine(cart *model.Cart, lineID int64) (model.CartLine, bool) {
	for _, line := range cart.Lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return model.CartLine{}, false
}
