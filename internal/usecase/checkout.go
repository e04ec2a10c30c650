package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

// CheckoutRequest is the validated input of a checkout or retry.
type CheckoutRequest struct {
	Method          string
	Phone           string
	CardToken       string
	Amount          *decimal.Decimal
	ShippingAmount  decimal.Decimal
	Currency        string
	Email           string
	ShippingAddress model.Address
	BillingAddress  model.Address
	ShippingMethod  string
}

// CheckoutResult describes the created order and payment attempt.
type CheckoutResult struct {
	Order   model.Order
	Payment model.Payment
	Direct  bool
}

// FormatOrderNumber renders the human order number for a day and sequence.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("ORD-%s-%04d", day.Format("20060102"), seq)
}

// PaymentReference renders the gateway reference of an attempt.
func PaymentReference(orderID int64, attempt int) string {
	if attempt <= 1 {
		return fmt.Sprintf("ORD%06d", orderID)
	}
	return fmt.Sprintf("ORD%06d-%d", orderID, attempt)
}

// CheckoutParams lists CheckoutUseCase dependencies.
type CheckoutParams struct {
	fx.In

	Store     repository.Store
	Validator *Validator
	Ledger    *StockLedger
	Gateway   PaymentGateway
	Notifier  Notifier
	Recorder  Recorder
	Config    *config.Config
	Logger    *slog.Logger
}

// CheckoutUseCase turns carts into orders with payment attempts.
type CheckoutUseCase struct {
	store          repository.Store
	validator      *Validator
	ledger         *StockLedger
	gateway        PaymentGateway
	notifier       Notifier
	recorder       Recorder
	callbackURL    string
	returnURL      string
	gatewayTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(p CheckoutParams) *CheckoutUseCase {
	return &CheckoutUseCase{
		store:          p.Store,
		validator:      p.Validator,
		ledger:         p.Ledger,
		gateway:        p.Gateway,
		notifier:       p.Notifier,
		recorder:       p.Recorder,
		callbackURL:    p.Config.CallbackURL,
		returnURL:      p.Config.ReturnURL,
		gatewayTimeout: p.Config.GatewayTimeout,
		logger:         p.Logger,
		now:            time.Now,
	}
}

// Initiate converts the actor's cart into a pending order and opens the first payment.
func (u *CheckoutUseCase) Initiate(ctx context.Context, actor model.Actor, req CheckoutRequest) (*CheckoutResult, error) {
	details, err := u.validator.Details(req.Method, req.Phone, req.CardToken)
	if err != nil {
		return nil, err
	}
	currency, err := u.validator.Currency(req.Currency)
	if err != nil {
		return nil, err
	}
	if req.ShippingAmount.IsNegative() {
		return nil, fmt.Errorf("%w: shipping amount must not be negative", domainErrors.ErrInvalidAmount)
	}

	var order *model.Order
	var payment *model.Payment
	err = u.store.WithinTransaction(ctx, func(repos repository.Factory) error {
		cart, err := ResolveCart(ctx, repos, actor)
		if err != nil {
			return err
		}
		if cart.Empty() {
			return domainErrors.ErrEmptyCart
		}

		lines, err := u.refreshPrices(ctx, repos, cart)
		if err != nil {
			return err
		}
		cart.Recalculate()
		if err := repos.Carts().SaveTotals(ctx, cart); err != nil {
			return err
		}

		charge, err := u.validator.ReconcileAmount(req.Amount, cart.Total.Add(req.ShippingAmount))
		if err != nil {
			return err
		}
		if err := u.validator.CheckLimit(details.Method, charge); err != nil {
			return err
		}
		if err := u.ledger.CheckAvailability(ctx, repos, lines); err != nil {
			return err
		}

		now := u.now()
		seq, err := repos.Orders().NextSequence(ctx, now)
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		cartID := cart.ID
		order = &model.Order{
			Number:          FormatOrderNumber(now, seq),
			UserID:          actor.UserID,
			SessionKey:      actor.SessionKey,
			CartID:          &cartID,
			Status:          model.OrderStatusPending,
			TotalAmount:     charge,
			ShippingCost:    req.ShippingAmount.Round(2),
			Currency:        currency,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  billingOrShipping(req),
			ShippingMethod:  req.ShippingMethod,
			ContactEmail:    strings.TrimSpace(req.Email),
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, itemFromRequest(order.ID, line))
		}
		if _, err := repos.Orders().AddItems(ctx, order.ID, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		payment = newAttempt(order, 1, details, &model.RequestData{
			Items:           lines,
			ShippingAddress: order.ShippingAddress,
			BillingAddress:  order.BillingAddress,
			ShippingMethod:  order.ShippingMethod,
			ContactEmail:    order.ContactEmail,
			Phone:           details.Phone,
		})
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		if _, err := repos.Carts().SetStatus(ctx, cart.ID, model.CartStatusActive, model.CartStatusConverted); err != nil {
			return fmt.Errorf("convert cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order created",
		slog.Int64("order_id", order.ID),
		slog.String("order_number", order.Number),
		slog.String("amount", order.TotalAmount.StringFixed(2)),
		slog.String("method", details.Method.Name),
	)
	return u.charge(ctx, order, payment, details)
}

// Retry opens a new payment attempt for a pending or failed order.
func (u *CheckoutUseCase) Retry(ctx context.Context, actor model.Actor, orderID int64, req CheckoutRequest) (*CheckoutResult, error) {
	var order *model.Order
	var payment *model.Payment
	var details *PaymentDetails

	err := u.store.WithinTransaction(ctx, func(repos repository.Factory) error {
		o, err := repos.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.Owns(o.UserID, o.SessionKey) {
			return domainErrors.ErrNotFound
		}
		if o.Status != model.OrderStatusPending && o.Status != model.OrderStatusFailed {
			return domainErrors.ErrOrderNotPayable
		}

		attempts, err := repos.Payments().ListByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		var last *model.Payment
		for i := range attempts {
			if !attempts[i].Status.Terminal() {
				return domainErrors.ErrPaymentOutstanding
			}
			last = &attempts[i]
		}

		method := req.Method
		if method == "" && last != nil {
			method = last.Method
		}
		phone := req.Phone
		if phone == "" && last != nil && last.RequestData != nil {
			phone = last.RequestData.Phone
		}
		if details, err = u.validator.Details(method, phone, req.CardToken); err != nil {
			return err
		}
		if err := u.validator.CheckLimit(details.Method, o.TotalAmount); err != nil {
			return err
		}

		data := &model.RequestData{}
		attempt := 1
		if last != nil {
			attempt = last.Attempt + 1
			if last.RequestData != nil {
				copied := *last.RequestData
				data = &copied
			}
		}
		if len(data.Items) == 0 {
			items, err := repos.Orders().Items(ctx, o.ID)
			if err != nil {
				return err
			}
			data.Items = requestItemsFromOrder(items)
		}
		data.Phone = details.Phone

		if o.Status == model.OrderStatusFailed {
			ok, err := repos.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusFailed, model.OrderStatusPending)
			if err != nil {
				return err
			}
			if !ok {
				return domainErrors.ErrOrderNotPayable
			}
			o.Status = model.OrderStatusPending
		}

		payment = newAttempt(o, attempt, details, data)
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("payment retry created", slog.Int64("order_id", order.ID), slog.Int("attempt", payment.Attempt))
	return u.charge(ctx, order, payment, details)
}

// Cancel cancels an order and returns stock when it had been debited.
func (u *CheckoutUseCase) Cancel(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	var order *model.Order
	err := u.store.WithinTransaction(ctx, func(repos repository.Factory) error {
		o, err := repos.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.Owns(o.UserID, o.SessionKey) {
			return domainErrors.ErrNotFound
		}
		if !o.Status.CanTransition(model.OrderStatusCancelled) {
			return fmt.Errorf("%w: %s order cannot be cancelled", domainErrors.ErrInvalidTransition, o.Status)
		}

		wasStocked := o.Status.Stocked()
		ok, err := repos.Orders().UpdateStatus(ctx, o.ID, o.Status, model.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domainErrors.ErrInvalidTransition
		}
		if wasStocked {
			items, err := repos.Orders().Items(ctx, o.ID)
			if err != nil {
				return err
			}
			if err := u.ledger.Credit(ctx, repos, o, items, model.MovementReturn); err != nil {
				return err
			}
		}
		o.Status = model.OrderStatusCancelled
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order cancelled", slog.Int64("order_id", order.ID))
	notify(ctx, u.notifier, u.logger, orderNotification(model.NotifyOrderCancelled, order, ""))
	return order, nil
}

// charge calls the gateway for a committed initiated payment.
func (u *CheckoutUseCase) charge(ctx context.Context, order *model.Order, payment *model.Payment, details *PaymentDetails) (*CheckoutResult, error) {
	result := &CheckoutResult{Order: *order, Payment: *payment, Direct: details.Direct()}

	callCtx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()

	started := time.Now()
	res, err := u.gateway.CreatePayment(callCtx, model.ChargeRequest{
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Method:      payment.Method,
		Reference:   payment.Reference,
		CallbackURL: u.callbackURL,
		ReturnURL:   u.returnURL,
		Phone:       details.Phone,
		CardToken:   details.CardToken,
		Metadata: map[string]string{
			"order_id":     strconv.FormatInt(order.ID, 10),
			"order_number": order.Number,
		},
	})
	u.recorder.GatewayCall("create_payment", outcomeOf(err), time.Since(started))

	if err != nil {
		var rejection *domainErrors.GatewayRejectionError
		if errors.As(err, &rejection) {
			u.logger.Warn("gateway rejected payment",
				slog.Int64("order_id", order.ID),
				slog.String("reference", payment.Reference),
				slog.String("message", rejection.Message),
			)
			ok, uerr := u.store.Payments().UpdateStatus(ctx, payment.ID, model.PaymentStatusInitiated, model.PaymentStatusFailed, rejection.Raw)
			switch {
			case uerr != nil:
				u.logger.Error("mark rejected payment failed", slog.Int64("payment_id", payment.ID), slog.String("error", uerr.Error()))
			case ok:
				result.Payment.Status = model.PaymentStatusFailed
				u.recorder.PaymentTransition(string(model.SourceCheckout), string(model.PaymentStatusFailed))
				n := orderNotification(model.NotifyPaymentFailed, order, rejection.Message)
				n.PaymentID = payment.ID
				notify(ctx, u.notifier, u.logger, n)
			}
			return result, &domainErrors.GatewayError{OrderID: order.ID, Message: rejection.Message, Err: domainErrors.ErrGatewayRejected}
		}

		u.logger.Warn("gateway unavailable, payment left for polling",
			slog.Int64("order_id", order.ID),
			slog.String("reference", payment.Reference),
			slog.String("error", err.Error()),
		)
		return result, &domainErrors.GatewayError{OrderID: order.ID, Err: domainErrors.ErrGatewayUnavailable}
	}

	status, err := u.store.Payments().MarkSubmitted(ctx, payment.ID, res.ExternalID, res.CheckoutURL, res.Raw)
	if err != nil {
		return nil, fmt.Errorf("store gateway response: %w", err)
	}
	result.Payment.ExternalID = res.ExternalID
	result.Payment.CheckoutURL = res.CheckoutURL
	result.Payment.Status = status
	return result, nil
}

func (u *CheckoutUseCase) refreshPrices(ctx context.Context, repos repository.Factory, cart *model.Cart) ([]model.RequestItem, error) {
	lines := make([]model.RequestItem, 0, len(cart.Lines))
	for i := range cart.Lines {
		line := &cart.Lines[i]
		item, err := repos.Catalog().Item(ctx, line.ProductID, line.ColorID)
		if errors.Is(err, domainErrors.ErrNotFound) || (err == nil && !item.Active) {
			return nil, fmt.Errorf("%w: product %d", domainErrors.ErrProductUnavailable, line.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if !item.Price.Equal(line.UnitPrice) {
			u.logger.Info("cart line repriced",
				slog.Int64("cart_id", cart.ID),
				slog.Int64("product_id", line.ProductID),
				slog.String("old", line.UnitPrice.StringFixed(2)),
				slog.String("new", item.Price.StringFixed(2)),
			)
			line.UnitPrice = item.Price
			if err := repos.Carts().UpdateLine(ctx, *line); err != nil {
				return nil, err
			}
		}
		lines = append(lines, model.RequestItem{
			ProductID: line.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			ImageURL:  item.ImageURL,
			ColorID:   line.ColorID,
			ColorName: item.ColorName,
			ColorHex:  item.ColorHex,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
		})
	}
	return lines, nil
}

func newAttempt(order *model.Order, attempt int, details *PaymentDetails, data *model.RequestData) *model.Payment {
	return &model.Payment{
		OrderID:     order.ID,
		Attempt:     attempt,
		Method:      details.Method.Name,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Reference:   PaymentReference(order.ID, attempt),
		Status:      model.PaymentStatusInitiated,
		RequestData: data,
	}
}

func requestItemsFromOrder(items []model.OrderItem) []model.RequestItem {
	out := make([]model.RequestItem, 0, len(items))
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		out = append(out, model.RequestItem{
			ProductID: *it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			ImageURL:  it.ImageURL,
			ColorID:   it.ColorID,
			ColorName: it.ColorName,
			ColorHex:  it.ColorHex,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}

func billingOrShipping(req CheckoutRequest) model.Address {
	if req.BillingAddress.IsZero() {
		return req.ShippingAddress
	}
	return req.BillingAddress
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainErrors.ErrGatewayRejected):
		return "rejected"
	case errors.Is(err, domainErrors.ErrUnknownReference):
		return "unknown_reference"
	default:
		return "unavailable"
	}
}
