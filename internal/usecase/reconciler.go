package usecase

import (
	"context"
	"encoding/json"
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

// Timeout reasons recorded on payments failed without a gateway verdict.
const (
	ReasonHardTimeout = "hard_timeout"
	ReasonSoftTimeout = "soft_timeout"
)

// TimeoutPolicy decides when an unconfirmed payment is given up.
type TimeoutPolicy struct {
	Hard      time.Duration
	Soft      time.Duration
	SoftPolls int
}

// Expired reports whether a payment created at createdAt and polled polls times is
// past the hard timeout, or past the soft timeout with too many polls.
func (p TimeoutPolicy) Expired(createdAt, now time.Time, polls int) (bool, string) {
	age := now.Sub(createdAt)
	if age > p.Hard {
		return true, ReasonHardTimeout
	}
	if age > p.Soft && polls > p.SoftPolls {
		return true, ReasonSoftTimeout
	}
	return false, ""
}

// Outcome is a terminal verdict for a payment from one confirmation source.
type Outcome struct {
	Status   model.PaymentStatus
	Source   model.ConfirmationSource
	Reason   string
	Response json.RawMessage
}

// TransitionResult reports what a transition did.
type TransitionResult struct {
	Applied   bool
	Duplicate bool
	Payment   model.Payment
	Order     model.Order
}

// OrderStatusView is the polling response.
type OrderStatusView struct {
	Order    model.Order
	Items    []model.OrderItem
	Payments []model.Payment
}

// WebhookResult is returned for acknowledged deliveries.
type WebhookResult struct {
	Ignored    bool
	Transition *TransitionResult
}

// ReconcilerParams lists Reconciler dependencies.
type ReconcilerParams struct {
	fx.In

	Store        repository.Store
	Gateway      PaymentGateway
	Verifier     SignatureVerifier
	Ledger       *StockLedger
	Materializer *Materializer
	Notifier     Notifier
	Throttle     PollThrottle
	Recorder     Recorder
	Config       *config.Config
	Policy       *config.Policy
	Logger       *slog.Logger
}

// Reconciler applies payment confirmations from every channel exactly once.
type Reconciler struct {
	store          repository.Store
	gateway        PaymentGateway
	verifier       SignatureVerifier
	ledger         *StockLedger
	items          *Materializer
	notifier       Notifier
	throttle       PollThrottle
	recorder       Recorder
	timeouts       TimeoutPolicy
	gatewayTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewReconciler constructs Reconciler.
func NewReconciler(p ReconcilerParams) *Reconciler {
	return &Reconciler{
		store:          p.Store,
		gateway:        p.Gateway,
		verifier:       p.Verifier,
		ledger:         p.Ledger,
		items:          p.Materializer,
		notifier:       p.Notifier,
		throttle:       p.Throttle,
		recorder:       p.Recorder,
		timeouts:       TimeoutPolicy{Hard: p.Policy.HardTimeout, Soft: p.Policy.SoftTimeout, SoftPolls: p.Policy.SoftPollThreshold},
		gatewayTimeout: p.Config.GatewayTimeout,
		logger:         p.Logger,
		now:            time.Now,
	}
}

// Transition moves a non-terminal payment to out.Status and applies the order side
// effects in the same transaction. Terminal payments are left untouched.
func (r *Reconciler) Transition(ctx context.Context, paymentID int64, out Outcome) (*TransitionResult, error) {
	if !out.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is not a terminal payment status", domainErrors.ErrInvalidTransition, out.Status)
	}

	res := &TransitionResult{}
	err := r.store.WithinTransaction(ctx, func(repos repository.Factory) error {
		payment, err := repos.Payments().GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		res.Payment = *payment
		if payment.Status.Terminal() {
			return nil
		}

		ok, err := repos.Payments().UpdateStatus(ctx, payment.ID, payment.Status, out.Status, out.Response)
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		if !ok {
			return nil
		}

		order, err := repos.Orders().GetForUpdate(ctx, payment.OrderID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		switch out.Status {
		case model.PaymentStatusPaid:
			err = r.applyPaid(ctx, repos, payment, order, res)
		case model.PaymentStatusFailed:
			err = r.applyFailed(ctx, repos, order)
		}
		if err != nil {
			return err
		}

		res.Applied = true
		res.Payment.Status = out.Status
		res.Order = *order
		return nil
	})

	var shortage *domainErrors.InsufficientStockError
	if errors.As(err, &shortage) {
		r.alertStockShortage(ctx, paymentID, out, shortage)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if res.Applied {
		r.afterTransition(ctx, res, out)
	}
	return res, nil
}

func (r *Reconciler) applyPaid(ctx context.Context, repos repository.Factory, payment *model.Payment, order *model.Order, res *TransitionResult) error {
	if !order.Status.CanTransition(model.OrderStatusPaid) {
		res.Duplicate = true
		return nil
	}

	ok, err := repos.Orders().UpdateStatus(ctx, order.ID, order.Status, model.OrderStatusPaid)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: order %d changed concurrently", domainErrors.ErrInvalidTransition, order.ID)
	}
	order.Status = model.OrderStatusPaid

	items, err := r.items.EnsureItems(ctx, repos, order)
	if err != nil {
		return err
	}
	if err := r.ledger.Debit(ctx, repos, order, items); err != nil {
		return err
	}

	if order.CartID != nil {
		if err := repos.Carts().ClearLines(ctx, *order.CartID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if _, err := repos.Carts().SetStatus(ctx, *order.CartID, model.CartStatusActive, model.CartStatusConverted); err != nil {
			return fmt.Errorf("convert cart: %w", err)
		}
	}
	return nil
}

func (r *Reconciler) applyFailed(ctx context.Context, repos repository.Factory, order *model.Order) error {
	if order.Status != model.OrderStatusPending {
		return nil
	}
	ok, err := repos.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPending, model.OrderStatusFailed)
	if err != nil {
		return fmt.Errorf("mark order failed: %w", err)
	}
	if ok {
		order.Status = model.OrderStatusFailed
	}
	return nil
}

func (r *Reconciler) afterTransition(ctx context.Context, res *TransitionResult, out Outcome) {
	r.recorder.PaymentTransition(string(out.Source), string(out.Status))
	r.logger.Info("payment transitioned",
		slog.Int64("payment_id", res.Payment.ID),
		slog.Int64("order_id", res.Order.ID),
		slog.String("status", string(out.Status)),
		slog.String("source", string(out.Source)),
		slog.String("reason", out.Reason),
	)

	if res.Duplicate {
		msg := fmt.Sprintf("payment %s captured while order is %s; refund required", res.Payment.Reference, res.Order.Status)
		r.logger.Error("duplicate capture", slog.Int64("order_id", res.Order.ID), slog.String("reference", res.Payment.Reference), slog.String("order_status", string(res.Order.Status)))
		r.recorder.OperatorAlert("duplicate_capture")
		notify(ctx, r.notifier, r.logger, orderNotification(model.NotifyOperatorAlert, &res.Order, msg))
		return
	}

	switch out.Status {
	case model.PaymentStatusPaid:
		notify(ctx, r.notifier, r.logger, orderNotification(model.NotifyPaymentPaid, &res.Order, ""))
	case model.PaymentStatusFailed:
		if res.Order.Status == model.OrderStatusFailed {
			notify(ctx, r.notifier, r.logger, orderNotification(model.NotifyPaymentFailed, &res.Order, out.Reason))
		}
	}
}

// alertStockShortage raises the operator alert once per payment. Later confirmations of
// the same captured payment only log.
func (r *Reconciler) alertStockShortage(ctx context.Context, paymentID int64, out Outcome, shortage *domainErrors.InsufficientStockError) {
	first, err := r.store.Payments().MarkStockAlerted(ctx, paymentID, r.now())
	if err != nil {
		r.logger.Warn("mark stock alert failed", slog.Int64("payment_id", paymentID), slog.String("error", err.Error()))
		first = true
	}
	if !first {
		r.logger.Warn("captured payment still awaiting stock",
			slog.Int64("payment_id", paymentID),
			slog.String("source", string(out.Source)),
		)
		return
	}

	r.logger.Error("insufficient stock for captured payment",
		slog.Int64("payment_id", paymentID),
		slog.String("source", string(out.Source)),
		slog.String("error", shortage.Error()),
	)
	r.recorder.OperatorAlert("insufficient_stock")

	n := model.Notification{Kind: model.NotifyOperatorAlert, PaymentID: paymentID, Message: shortage.Error()}
	if payment, err := r.store.Payments().GetByID(ctx, paymentID); err == nil {
		if order, err := r.store.Orders().GetByID(ctx, payment.OrderID); err == nil {
			n = orderNotification(model.NotifyOperatorAlert, order, shortage.Error())
			n.PaymentID = paymentID
		}
	}
	notify(ctx, r.notifier, r.logger, n)
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        string           `json:"id"`
		Reference string           `json:"reference"`
		Amount    *decimal.Decimal `json:"amount"`
		Status    string           `json:"status"`
	} `json:"data"`
	Metadata struct {
		OrderID json.RawMessage `json:"order_id"`
	} `json:"metadata"`
}

// HandleWebhook verifies and applies a gateway push notification.
func (r *Reconciler) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if !r.verifier.SignatureConfigured() {
		r.logger.Warn("webhook accepted without signature verification, no secret configured")
	} else if !r.verifier.VerifySignature(body, signature) {
		r.logger.Warn("security: webhook signature mismatch", slog.Int("body_bytes", len(body)))
		r.recorder.WebhookRejected("signature")
		return nil, domainErrors.ErrInvalidSignature
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		r.recorder.WebhookRejected("malformed")
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrMalformedPayload, err)
	}

	status, ok := webhookOutcome(payload.Event, payload.Data.Status)
	if !ok {
		r.logger.Info("webhook event ignored", slog.String("event", payload.Event))
		return &WebhookResult{Ignored: true}, nil
	}

	payment, err := r.locatePayment(ctx, payload)
	if err != nil {
		r.recorder.WebhookRejected("unknown_payment")
		return nil, err
	}

	if status == model.PaymentStatusPaid && payload.Data.Amount != nil && !payload.Data.Amount.Round(2).Equal(payment.Amount.Round(2)) {
		r.logger.Warn("security: webhook amount differs from payment",
			slog.Int64("payment_id", payment.ID),
			slog.String("webhook_amount", payload.Data.Amount.StringFixed(2)),
			slog.String("payment_amount", payment.Amount.StringFixed(2)),
		)
		r.recorder.WebhookRejected("amount_mismatch")
		return nil, &domainErrors.AmountMismatchError{Client: *payload.Data.Amount, Server: payment.Amount}
	}

	res, err := r.Transition(ctx, payment.ID, Outcome{Status: status, Source: model.SourceWebhook, Reason: payload.Event, Response: json.RawMessage(body)})
	if err != nil {
		return nil, err
	}
	return &WebhookResult{Transition: res}, nil
}

func webhookOutcome(event, status string) (model.PaymentStatus, bool) {
	switch strings.ToLower(event) {
	case "payment.success", "payment.succeeded", "payment.completed":
		return model.PaymentStatusPaid, true
	case "payment.failed", "payment.cancelled", "payment.expired":
		return model.PaymentStatusFailed, true
	}
	return "", false
}

func (r *Reconciler) locatePayment(ctx context.Context, payload webhookPayload) (*model.Payment, error) {
	payments := r.store.Payments()
	if ref := payload.Data.Reference; ref != "" {
		p, err := payments.GetByReference(ctx, ref)
		if err == nil || !errors.Is(err, domainErrors.ErrNotFound) {
			return p, err
		}
	}
	if id := payload.Data.ID; id != "" {
		p, err := payments.GetByExternalID(ctx, id)
		if err == nil || !errors.Is(err, domainErrors.ErrNotFound) {
			return p, err
		}
	}
	if orderID, ok := parseOrderID(payload.Metadata.OrderID); ok {
		return payments.LatestByOrder(ctx, orderID)
	}
	return nil, domainErrors.ErrNotFound
}

// parseOrderID accepts the order id as JSON number or string.
func parseOrderID(raw json.RawMessage) (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

// PollOrder records a client poll for every unconfirmed payment of the order, asks
// the gateway when allowed and applies the timeout policy otherwise.
func (r *Reconciler) PollOrder(ctx context.Context, actor model.Actor, orderID int64) (*OrderStatusView, error) {
	order, err := r.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(order.UserID, order.SessionKey) {
		return nil, domainErrors.ErrNotFound
	}

	payments, err := r.store.Payments().ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	polled, changed := false, false
	for _, p := range payments {
		if p.Status.Terminal() {
			continue
		}
		polled = true
		applied, err := r.pollPayment(ctx, p)
		if err != nil {
			return nil, err
		}
		changed = changed || applied
	}

	if changed {
		if order, err = r.store.Orders().GetByID(ctx, orderID); err != nil {
			return nil, err
		}
	}
	if polled {
		if payments, err = r.store.Payments().ListByOrder(ctx, order.ID); err != nil {
			return nil, err
		}
	}
	items, err := r.store.Orders().Items(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderStatusView{Order: *order, Items: items, Payments: payments}, nil
}

func (r *Reconciler) pollPayment(ctx context.Context, p model.Payment) (bool, error) {
	now := r.now()
	count, err := r.store.Payments().RecordPoll(ctx, p.ID, now)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record poll: %w", err)
	}

	out, decided, _ := r.queryGateway(ctx, p, model.SourcePoll, true)
	if !decided {
		expired, reason := r.timeouts.Expired(p.CreatedAt, now, count)
		if !expired {
			return false, nil
		}
		out = Outcome{Status: model.PaymentStatusFailed, Source: model.SourcePoll, Reason: reason}
	}

	res, err := r.Transition(ctx, p.ID, out)
	var shortage *domainErrors.InsufficientStockError
	if errors.As(err, &shortage) {
		r.logger.Info("payment held pending until stock is restored", slog.Int64("payment_id", p.ID))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.Applied, nil
}

// queryGateway asks the provider for the payment state. It returns decided=false when
// the gateway has no verdict, was skipped or failed; a failed call also returns its error.
func (r *Reconciler) queryGateway(ctx context.Context, p model.Payment, source model.ConfirmationSource, throttled bool) (Outcome, bool, error) {
	if throttled {
		allowed, err := r.throttle.Allow(ctx, p.Reference)
		if err != nil {
			r.logger.Warn("poll throttle unavailable", slog.String("error", err.Error()))
			allowed = true
		}
		if !allowed {
			return Outcome{}, false, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()
	started := time.Now()
	status, err := r.gateway.PaymentStatus(callCtx, p.Reference)
	r.recorder.GatewayCall("payment_status", outcomeOf(err), time.Since(started))
	if err != nil {
		if errors.Is(err, domainErrors.ErrUnknownReference) {
			r.logger.Debug("gateway does not know payment yet", slog.String("reference", p.Reference))
			return Outcome{}, false, nil
		}
		r.logger.Warn("gateway status query failed", slog.String("reference", p.Reference), slog.String("error", err.Error()))
		return Outcome{}, false, err
	}

	if len(status.Raw) > 0 {
		if err := r.store.Payments().AppendResponse(ctx, p.ID, status.Raw); err != nil {
			r.logger.Warn("append gateway response failed", slog.Int64("payment_id", p.ID), slog.String("error", err.Error()))
		}
	}

	switch status.State {
	case model.GatewayStateSucceeded:
		return Outcome{Status: model.PaymentStatusPaid, Source: source, Reason: "gateway_success"}, true, nil
	case model.GatewayStateFailed:
		return Outcome{Status: model.PaymentStatusFailed, Source: source, Reason: "gateway_failed"}, true, nil
	}
	return Outcome{}, false, nil
}

// StalePayments returns unconfirmed payments older than the soft timeout.
func (r *Reconciler) StalePayments(ctx context.Context, limit int) ([]model.Payment, error) {
	return r.store.Payments().ListStale(ctx, r.now().Add(-r.timeouts.Soft), limit)
}

// Sweep checks one stale payment in the background. It asks the gateway and fails the
// payment after the hard timeout, without counting a client poll. Gateway errors are
// returned when the payment is still within the hard timeout. A captured payment
// waiting for stock stays pending.
func (r *Reconciler) Sweep(ctx context.Context, p model.Payment) error {
	if p.Status.Terminal() {
		return nil
	}
	if err := r.store.Payments().MarkSwept(ctx, p.ID, r.now()); err != nil {
		return fmt.Errorf("mark swept: %w", err)
	}
	out, decided, gatewayErr := r.queryGateway(ctx, p, model.SourceSweeper, false)
	if !decided {
		if r.now().Sub(p.CreatedAt) <= r.timeouts.Hard {
			return gatewayErr
		}
		out = Outcome{Status: model.PaymentStatusFailed, Source: model.SourceSweeper, Reason: ReasonHardTimeout}
	}
	_, err := r.Transition(ctx, p.ID, out)
	var shortage *domainErrors.InsufficientStockError
	if errors.As(err, &shortage) {
		return nil
	}
	return err
}
