package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

type stockKey struct {
	productID int64
	colorID   int64
}

func keyOf(productID int64, colorID *int64) stockKey {
	k := stockKey{productID: productID}
	if colorID != nil {
		k.colorID = *colorID
	}
	return k
}

func (k stockKey) color() *int64 {
	if k.colorID == 0 {
		return nil
	}
	id := k.colorID
	return &id
}

type stockDemand struct {
	key      stockKey
	name     string
	quantity int
}

// StockLedger adjusts stock rows and appends movements inside the caller's transaction.
type StockLedger struct {
	logger *slog.Logger
}

// NewStockLedger constructs StockLedger.
func NewStockLedger(logger *slog.Logger) *StockLedger {
	return &StockLedger{logger: logger}
}

// Debit removes the order quantities from stock. Rows are locked in a stable order;
// any shortage aborts with *InsufficientStockError before a single row is written.
// An order that already has sale movements is left untouched.
func (l *StockLedger) Debit(ctx context.Context, repos repository.Factory, order *model.Order, items []model.OrderItem) error {
	done, err := hasMovement(ctx, repos, order.ID, model.MovementSale)
	if err != nil {
		return err
	}
	if done {
		l.logger.Info("stock already debited for order", slog.Int64("order_id", order.ID))
		return nil
	}

	demands := l.aggregate(order, items)
	current := make(map[stockKey]int, len(demands))
	var shortages []domainErrors.StockShortage
	for _, d := range demands {
		stock, err := repos.Stock().Lock(ctx, d.key.productID, d.key.color())
		if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
			return fmt.Errorf("lock stock: %w", err)
		}
		current[d.key] = stock
		if stock < d.quantity {
			shortages = append(shortages, domainErrors.StockShortage{
				ProductID: d.key.productID,
				ColorID:   d.key.color(),
				Name:      d.name,
				Requested: d.quantity,
				Available: stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &domainErrors.InsufficientStockError{Shortages: shortages}
	}

	for _, d := range demands {
		if err := l.apply(ctx, repos, order, d.key, current[d.key], -d.quantity, model.MovementSale); err != nil {
			return err
		}
	}
	return nil
}

// Credit returns the order quantities to stock with the given movement kind. Orders
// that were never debited or were already credited with kind are skipped.
func (l *StockLedger) Credit(ctx context.Context, repos repository.Factory, order *model.Order, items []model.OrderItem, kind model.MovementKind) error {
	debited, err := hasMovement(ctx, repos, order.ID, model.MovementSale)
	if err != nil {
		return err
	}
	credited, err := hasMovement(ctx, repos, order.ID, kind)
	if err != nil {
		return err
	}
	if !debited || credited {
		return nil
	}

	for _, d := range l.aggregate(order, items) {
		stock, err := repos.Stock().Lock(ctx, d.key.productID, d.key.color())
		if errors.Is(err, domainErrors.ErrNotFound) {
			l.logger.Warn("stock row missing on credit", slog.Int64("order_id", order.ID), slog.Int64("product_id", d.key.productID))
			continue
		}
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}
		if err := l.apply(ctx, repos, order, d.key, stock, d.quantity, kind); err != nil {
			return err
		}
	}
	return nil
}

// CheckAvailability verifies without locking that current stock covers the lines.
func (l *StockLedger) CheckAvailability(ctx context.Context, repos repository.Factory, items []model.RequestItem) error {
	demands := make(map[stockKey]*stockDemand)
	var keys []stockKey
	for _, it := range items {
		k := keyOf(it.ProductID, it.ColorID)
		if d, ok := demands[k]; ok {
			d.quantity += it.Quantity
			continue
		}
		demands[k] = &stockDemand{key: k, name: it.Name, quantity: it.Quantity}
		keys = append(keys, k)
	}

	var shortages []domainErrors.StockShortage
	for _, k := range keys {
		d := demands[k]
		stock, err := repos.Stock().Available(ctx, k.productID, k.color())
		if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
			return fmt.Errorf("read stock: %w", err)
		}
		if stock < d.quantity {
			shortages = append(shortages, domainErrors.StockShortage{
				ProductID: k.productID, ColorID: k.color(), Name: d.name, Requested: d.quantity, Available: stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &domainErrors.InsufficientStockError{Shortages: shortages}
	}
	return nil
}

func (l *StockLedger) apply(ctx context.Context, repos repository.Factory, order *model.Order, key stockKey, previous, delta int, kind model.MovementKind) error {
	next := previous + delta
	if err := repos.Stock().Set(ctx, key.productID, key.color(), next); err != nil {
		return fmt.Errorf("write stock: %w", err)
	}
	orderID := order.ID
	return repos.Stock().AppendMovement(ctx, &model.StockMovement{
		ProductID:     key.productID,
		ColorID:       key.color(),
		OrderID:       &orderID,
		Kind:          kind,
		Delta:         delta,
		PreviousStock: previous,
		NewStock:      next,
		Note:          fmt.Sprintf("order %s", order.Number),
	})
}

// aggregate sums quantities per stock row, skipping items whose product is gone, and
// sorts rows so concurrent transactions lock them in the same order.
func (l *StockLedger) aggregate(order *model.Order, items []model.OrderItem) []stockDemand {
	index := make(map[stockKey]int)
	var out []stockDemand
	for _, it := range items {
		if it.ProductID == nil {
			l.logger.Warn("order item has no product, stock not adjusted",
				slog.Int64("order_id", order.ID), slog.String("name", it.Name))
			continue
		}
		k := keyOf(*it.ProductID, it.ColorID)
		if i, ok := index[k]; ok {
			out[i].quantity += it.Quantity
			continue
		}
		index[k] = len(out)
		out = append(out, stockDemand{key: k, name: it.Name, quantity: it.Quantity})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key.productID != out[j].key.productID {
			return out[i].key.productID < out[j].key.productID
		}
		return out[i].key.colorID < out[j].key.colorID
	})
	return out
}

func hasMovement(ctx context.Context, repos repository.Factory, orderID int64, kind model.MovementKind) (bool, error) {
	moves, err := repos.Stock().MovementsByOrder(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("load stock movements: %w", err)
	}
	for _, m := range moves {
		if m.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}
