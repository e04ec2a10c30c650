package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

// Materializer guarantees that a paid order has item snapshots.
type Materializer struct {
	logger *slog.Logger
}

// NewMaterializer constructs Materializer.
func NewMaterializer(logger *slog.Logger) *Materializer {
	return &Materializer{logger: logger}
}

// EnsureItems returns the order items, creating them when the order has none. The
// latest payment request payload is preferred; the source cart is a degraded fallback.
func (m *Materializer) EnsureItems(ctx context.Context, repos repository.Factory, order *model.Order) ([]model.OrderItem, error) {
	items, err := repos.Orders().Items(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	if len(items) > 0 {
		return items, nil
	}

	built, err := m.fromPayment(ctx, repos, order)
	if err != nil {
		return nil, err
	}
	if len(built) == 0 {
		if built, err = m.fromCart(ctx, repos, order); err != nil {
			return nil, err
		}
	}
	if len(built) == 0 {
		m.logger.Error("order has no recoverable items", slog.Int64("order_id", order.ID), slog.String("order_number", order.Number))
		return nil, nil
	}

	return repos.Orders().AddItems(ctx, order.ID, built)
}

func (m *Materializer) fromPayment(ctx context.Context, repos repository.Factory, order *model.Order) ([]model.OrderItem, error) {
	payment, err := repos.Payments().LatestByOrder(ctx, order.ID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest payment: %w", err)
	}
	if payment.RequestData == nil {
		return nil, nil
	}

	items := make([]model.OrderItem, 0, len(payment.RequestData.Items))
	for _, ri := range payment.RequestData.Items {
		item := itemFromRequest(order.ID, ri)
		if err := m.resolveProduct(ctx, repos, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (m *Materializer) fromCart(ctx context.Context, repos repository.Factory, order *model.Order) ([]model.OrderItem, error) {
	if order.CartID == nil {
		return nil, nil
	}
	cart, err := repos.Carts().GetByID(ctx, *order.CartID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load source cart: %w", err)
	}
	if cart.Empty() {
		return nil, nil
	}

	m.logger.Warn("rebuilding order items from cart", slog.Int64("order_id", order.ID), slog.Int64("cart_id", cart.ID))
	items := make([]model.OrderItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		productID := line.ProductID
		item := model.OrderItem{
			OrderID:   order.ID,
			ProductID: &productID,
			ColorID:   line.ColorID,
			Name:      fmt.Sprintf("product %d", line.ProductID),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal(),
		}
		cat, err := repos.Catalog().Item(ctx, line.ProductID, line.ColorID)
		switch {
		case err == nil:
			item.Name, item.SKU, item.ImageURL = cat.Name, cat.SKU, cat.ImageURL
			item.ColorName, item.ColorHex = cat.ColorName, cat.ColorHex
		case errors.Is(err, domainErrors.ErrNotFound):
			if err := m.resolveProduct(ctx, repos, &item); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("load catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// resolveProduct drops references to products or colors that no longer exist and
// keeps the textual snapshot.
func (m *Materializer) resolveProduct(ctx context.Context, repos repository.Factory, item *model.OrderItem) error {
	if item.ProductID == nil {
		return nil
	}
	_, err := repos.Catalog().Item(ctx, *item.ProductID, item.ColorID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return fmt.Errorf("load catalog item: %w", err)
	}
	if item.ColorID != nil {
		if _, err := repos.Catalog().Item(ctx, *item.ProductID, nil); err == nil {
			item.ColorID = nil
			return nil
		}
	}
	m.logger.Warn("order item product no longer exists", slog.Int64("product_id", *item.ProductID), slog.String("name", item.Name))
	item.ProductID = nil
	item.ColorID = nil
	return nil
}

func itemFromRequest(orderID int64, ri model.RequestItem) model.OrderItem {
	productID := ri.ProductID
	return model.OrderItem{
		OrderID:   orderID,
		ProductID: &productID,
		Name:      ri.Name,
		SKU:       ri.SKU,
		ImageURL:  ri.ImageURL,
		ColorID:   ri.ColorID,
		ColorName: ri.ColorName,
		ColorHex:  ri.ColorHex,
		Quantity:  ri.Quantity,
		UnitPrice: ri.UnitPrice,
		Subtotal:  ri.UnitPrice.Mul(decimal.NewFromInt(int64(ri.Quantity))),
	}
}
