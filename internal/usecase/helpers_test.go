package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/test"
)

const (
	productKanga   int64 = 1
	productKitenge int64 = 2
	colorIndigo    int64 = 7
	webhookSig           = "valid-signature"
	mpesaPhone           = "0754 123 456"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() *config.Policy {
	return &config.Policy{
		Currency:          "TZS",
		PhoneCountryCode:  "255",
		HardTimeout:       15 * time.Minute,
		SoftTimeout:       3 * time.Minute,
		SoftPollThreshold: 60,
		AmountDriftRatio:  0.01,
		AmountDriftFloor:  1,
		CartIdleTTL:       72 * time.Hour,
		Methods:           config.DefaultMethods(),
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	clock      *clock
	store      *test.MemoryStore
	gateway    *test.GatewayStub
	notifier   *test.NotifierStub
	recorder   *test.RecorderStub
	policy     *config.Policy
	validator  *Validator
	ledger     *StockLedger
	items      *Materializer
	carts      *CartUseCase
	checkout   *CheckoutUseCase
	reconciler *Reconciler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:    &clock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)},
		store:    test.NewMemoryStore(),
		gateway:  &test.GatewayStub{},
		notifier: &test.NotifierStub{},
		recorder: test.NewRecorderStub(),
		policy:   testPolicy(),
	}
	h.store.Now = h.clock.Now

	logger := discardLogger()
	cfg := &config.Config{GatewayTimeout: time.Second, CallbackURL: "https://shop.test/payments/webhook", ReturnURL: "https://shop.test/return"}
	h.validator = NewValidator(h.policy, logger)
	h.ledger = NewStockLedger(logger)
	h.items = NewMaterializer(logger)

	h.carts = NewCartUseCase(h.store, h.policy, logger)
	h.carts.now = h.clock.Now

	h.checkout = NewCheckoutUseCase(CheckoutParams{
		Store:     h.store,
		Validator: h.validator,
		Ledger:    h.ledger,
		Gateway:   h.gateway,
		Notifier:  h.notifier,
		Recorder:  h.recorder,
		Config:    cfg,
		Logger:    logger,
	})
	h.checkout.now = h.clock.Now

	h.reconciler = NewReconciler(ReconcilerParams{
		Store:        h.store,
		Gateway:      h.gateway,
		Verifier:     test.VerifierStub{Valid: webhookSig},
		Ledger:       h.ledger,
		Materializer: h.items,
		Notifier:     h.notifier,
		Throttle:     test.ThrottleStub{},
		Recorder:     h.recorder,
		Config:       cfg,
		Policy:       h.policy,
		Logger:       logger,
	})
	h.reconciler.now = h.clock.Now

	h.store.AddProduct(model.CatalogItem{ProductID: productKanga, Name: "Kanga", SKU: "KG-1", Price: decimal.NewFromInt(1000), Active: true}, 10)
	indigo := colorIndigo
	h.store.AddProduct(model.CatalogItem{ProductID: productKitenge, Name: "Kitenge", SKU: "KT-1", Price: decimal.NewFromInt(2500), Active: true}, 0)
	h.store.AddProduct(model.CatalogItem{ProductID: productKitenge, ColorID: &indigo, Name: "Kitenge", SKU: "KT-1", ColorName: "Indigo", ColorHex: "#3F51B5", Price: decimal.NewFromInt(2500), Active: true}, 5)
	h.store.AddCoupon(model.Coupon{Code: "KARIBU10", PercentOff: decimal.NewFromInt(10), Active: true})
	return h
}

func guest(session string) model.Actor {
	return model.Actor{SessionKey: session}
}

func member(userID int64, session string) model.Actor {
	id := userID
	return model.Actor{UserID: &id, SessionKey: session}
}

func (h *harness) addToCart(t *testing.T, actor model.Actor, productID int64, colorID *int64, qty int) *model.Cart {
	t.Helper()
	cart, err := h.carts.AddItem(context.Background(), actor, productID, colorID, qty)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	return cart
}

// placeOrder fills a cart with two kangas and checks out with M-Pesa.
func (h *harness) placeOrder(t *testing.T, actor model.Actor) *CheckoutResult {
	t.Helper()
	h.addToCart(t, actor, productKanga, nil, 2)
	res, err := h.checkout.Initiate(context.Background(), actor, CheckoutRequest{Method: "mpesa", Phone: mpesaPhone})
	if err != nil {
		t.Fatalf("initiate checkout: %v", err)
	}
	return res
}

func (h *harness) payment(t *testing.T, id int64) *model.Payment {
	t.Helper()
	p, err := h.store.Payments().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	return p
}

func (h *harness) order(t *testing.T, id int64) *model.Order {
	t.Helper()
	o, err := h.store.Orders().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	return o
}

func (h *harness) saleMovements(orderID int64) int {
	count := 0
	for _, m := range h.store.Movements() {
		if m.OrderID != nil && *m.OrderID == orderID && m.Kind == model.MovementSale {
			count++
		}
	}
	return count
}

func webhookBody(event, reference, amount string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"data":{"id":"","reference":%q,"amount":%s,"status":"ok"}}`, event, reference, amount))
}
