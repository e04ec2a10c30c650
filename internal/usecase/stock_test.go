package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

func ptr(v int64) *int64 { return &v }

func (h *harness) newOrder(t *testing.T, number string) *model.Order {
	t.Helper()
	order := &model.Order{Number: number, Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(1000), Currency: "TZS"}
	if err := h.store.Orders().Create(context.Background(), order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (h *harness) tx(t *testing.T, fn func(repos repository.Factory) error) error {
	t.Helper()
	return h.store.WithinTransaction(context.Background(), fn)
}

func TestStockLedgerDebit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.newOrder(t, "ORD-20240315-0001")
	items := []model.OrderItem{
		{ProductID: ptr(productKitenge), ColorID: ptr(colorIndigo), Name: "Kitenge", Quantity: 2},
		{ProductID: ptr(productKanga), Name: "Kanga", Quantity: 3},
		{ProductID: ptr(productKanga), Name: "Kanga", Quantity: 1},
		{Name: "Deleted product", Quantity: 9},
	}

	err := h.tx(t, func(repos repository.Factory) error {
		return h.ledger.Debit(ctx, repos, order, items)
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if got := h.store.StockOf(productKanga, nil); got != 6 {
		t.Fatalf("expected kanga stock 6, got %d", got)
	}
	if got := h.store.StockOf(productKitenge, ptr(colorIndigo)); got != 3 {
		t.Fatalf("expected indigo kitenge stock 3, got %d", got)
	}

	moves := h.store.Movements()
	if len(moves) != 2 {
		t.Fatalf("expected one movement per stock row, got %d", len(moves))
	}
	first := moves[0]
	if first.ProductID != productKanga || first.Delta != -4 || first.PreviousStock != 10 || first.NewStock != 6 || first.Kind != model.MovementSale {
		t.Fatalf("unexpected movement %+v", first)
	}
	if first.Note != "order ORD-20240315-0001" {
		t.Fatalf("unexpected movement note %q", first.Note)
	}

	err = h.tx(t, func(repos repository.Factory) error {
		return h.ledger.Debit(ctx, repos, order, items)
	})
	if err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if got := h.store.StockOf(productKanga, nil); got != 6 {
		t.Fatalf("expected repeated debit to be ignored, got stock %d", got)
	}
}

func TestStockLedgerDebitShortageWritesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.newOrder(t, "ORD-20240315-0002")
	items := []model.OrderItem{
		{ProductID: ptr(productKanga), Name: "Kanga", Quantity: 2},
		{ProductID: ptr(productKitenge), ColorID: ptr(colorIndigo), Name: "Kitenge", Quantity: 6},
	}

	err := h.tx(t, func(repos repository.Factory) error {
		return h.ledger.Debit(ctx, repos, order, items)
	})
	var shortage *domainErrors.InsufficientStockError
	if !errors.As(err, &shortage) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(shortage.Shortages) != 1 || shortage.Shortages[0].Requested != 6 || shortage.Shortages[0].Available != 5 {
		t.Fatalf("unexpected shortages %+v", shortage.Shortages)
	}
	if got := h.store.StockOf(productKanga, nil); got != 10 {
		t.Fatalf("expected kanga stock untouched, got %d", got)
	}
	if len(h.store.Movements()) != 0 {
		t.Fatal("expected no movements on shortage")
	}
}

func TestStockLedgerCredit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.newOrder(t, "ORD-20240315-0003")
	items := []model.OrderItem{{ProductID: ptr(productKanga), Name: "Kanga", Quantity: 4}}

	credit := func() {
		t.Helper()
		err := h.tx(t, func(repos repository.Factory) error {
			return h.ledger.Credit(ctx, repos, order, items, model.MovementReturn)
		})
		if err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	credit()
	if got := h.store.StockOf(productKanga, nil); got != 10 {
		t.Fatalf("expected credit without debit to be skipped, got %d", got)
	}

	if err := h.tx(t, func(repos repository.Factory) error { return h.ledger.Debit(ctx, repos, order, items) }); err != nil {
		t.Fatalf("debit: %v", err)
	}
	credit()
	credit()
	if got := h.store.StockOf(productKanga, nil); got != 10 {
		t.Fatalf("expected stock restored once to 10, got %d", got)
	}
	if got := len(h.store.Movements()); got != 2 {
		t.Fatalf("expected sale and return movements, got %d", got)
	}
}

func TestStockLedgerCheckAvailability(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ok := []model.RequestItem{{ProductID: productKanga, Quantity: 6}, {ProductID: productKanga, Quantity: 4}}
	if err := h.ledger.CheckAvailability(ctx, h.store, ok); err != nil {
		t.Fatalf("expected stock to cover lines, got %v", err)
	}

	short := []model.RequestItem{{ProductID: productKanga, Quantity: 6}, {ProductID: productKanga, Quantity: 5}, {ProductID: 99, Name: "Ghost", Quantity: 1}}
	var shortage *domainErrors.InsufficientStockError
	if err := h.ledger.CheckAvailability(ctx, h.store, short); !errors.As(err, &shortage) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(shortage.Shortages) != 2 {
		t.Fatalf("expected two shortages, got %+v", shortage.Shortages)
	}
}
