package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// GatewayStub implements the payment gateway contract via function overrides.
type GatewayStub struct {
	CreateFn func(context.Context, model.ChargeRequest) (*model.ChargeResult, error)
	StatusFn func(context.Context, string) (*model.GatewayStatus, error)

	mu          sync.Mutex
	Charges     []model.ChargeRequest
	StatusCalls []string
}

// CreatePayment records req and answers with an external id derived from the reference.
func (g *GatewayStub) CreatePayment(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error) {
	g.mu.Lock()
	g.Charges = append(g.Charges, req)
	g.mu.Unlock()
	if g.CreateFn != nil {
		return g.CreateFn(ctx, req)
	}
	return &model.ChargeResult{
		ExternalID:  "ext-" + req.Reference,
		Reference:   req.Reference,
		CheckoutURL: "https://pay.example.test/" + req.Reference,
		Raw:         []byte(`{"status":"ok"}`),
	}, nil
}

// PaymentStatus records the query and reports pending unless overridden.
func (g *GatewayStub) PaymentStatus(ctx context.Context, reference string) (*model.GatewayStatus, error) {
	g.mu.Lock()
	g.StatusCalls = append(g.StatusCalls, reference)
	g.mu.Unlock()
	if g.StatusFn != nil {
		return g.StatusFn(ctx, reference)
	}
	return &model.GatewayStatus{Reference: reference, State: model.GatewayStatePending, Raw: []byte(`{"status":"pending"}`)}, nil
}

// ChargeCount returns how many payments were created.
func (g *GatewayStub) ChargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Charges)
}

// StatusCount returns how many status queries were made.
func (g *GatewayStub) StatusCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.StatusCalls)
}

// VerifierStub accepts signatures equal to Valid.
type VerifierStub struct {
	Valid      string
	Unverified bool
}

// VerifySignature compares header with the expected value.
func (v VerifierStub) VerifySignature(_ []byte, header string) bool {
	return header == v.Valid
}

// SignatureConfigured reports whether a secret is configured.
func (v VerifierStub) SignatureConfigured() bool {
	return !v.Unverified
}

// NotifierStub records dispatched notifications.
type NotifierStub struct {
	Err error

	mu   sync.Mutex
	Sent []model.Notification
}

// Dispatch stores n and returns Err.
func (n *NotifierStub) Dispatch(_ context.Context, msg model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, msg)
	return n.Err
}

// Kinds lists dispatched notification kinds in order.
func (n *NotifierStub) Kinds() []model.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]model.NotificationKind, 0, len(n.Sent))
	for _, msg := range n.Sent {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}

// Count returns the number of notifications of the given kind.
func (n *NotifierStub) Count(kind model.NotificationKind) int {
	count := 0
	for _, k := range n.Kinds() {
		if k == kind {
			count++
		}
	}
	return count
}

// ThrottleStub answers poll throttle checks.
type ThrottleStub struct {
	Deny bool
	Err  error
}

// Allow reports !Deny.
func (t ThrottleStub) Allow(context.Context, string) (bool, error) {
	if t.Err != nil {
		return false, t.Err
	}
	return !t.Deny, nil
}

// RecorderStub counts recorded business metrics.
type RecorderStub struct {
	mu          sync.Mutex
	Transitions map[string]int
	Gateway     map[string]int
	Rejections  map[string]int
	Alerts      map[string]int
}

// NewRecorderStub returns an empty recorder.
func NewRecorderStub() *RecorderStub {
	return &RecorderStub{
		Transitions: map[string]int{},
		Gateway:     map[string]int{},
		Rejections:  map[string]int{},
		Alerts:      map[string]int{},
	}
}

// PaymentTransition counts source/status pairs.
func (r *RecorderStub) PaymentTransition(source, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transitions[source+"/"+status]++
}

// GatewayCall counts operation/outcome pairs.
func (r *RecorderStub) GatewayCall(operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Gateway[operation+"/"+outcome]++
}

// WebhookRejected counts rejection reasons.
func (r *RecorderStub) WebhookRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rejections[reason]++
}

// OperatorAlert counts alert kinds.
func (r *RecorderStub) OperatorAlert(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts[kind]++
}

// Alert returns the count of an alert kind.
func (r *RecorderStub) Alert(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Alerts[kind]
}

// Transition returns the count of a source/status pair.
func (r *RecorderStub) Transition(source, status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Transitions[source+"/"+status]
}
