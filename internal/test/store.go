package test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/domain/repository"
)

type itemKey struct {
	product int64
	color   int64
}

func keyOf(productID int64, colorID *int64) itemKey {
	k := itemKey{product: productID}
	if colorID != nil {
		k.color = *colorID
	}
	return k
}

type memState struct {
	seq       int64
	carts     map[int64]model.Cart
	orders    map[int64]model.Order
	items     map[int64][]model.OrderItem
	payments  map[int64]model.Payment
	history   map[int64][]json.RawMessage
	stock     map[itemKey]int
	movements []model.StockMovement
	catalog   map[itemKey]model.CatalogItem
	coupons   map[string]model.Coupon
	counters  map[string]int
	alerted   map[int64]time.Time
	swept     map[int64]time.Time
}

func newMemState() *memState {
	return &memState{
		carts:    make(map[int64]model.Cart),
		orders:   make(map[int64]model.Order),
		items:    make(map[int64][]model.OrderItem),
		payments: make(map[int64]model.Payment),
		history:  make(map[int64][]json.RawMessage),
		stock:    make(map[itemKey]int),
		catalog:  make(map[itemKey]model.CatalogItem),
		coupons:  make(map[string]model.Coupon),
		counters: make(map[string]int),
		alerted:  make(map[int64]time.Time),
		swept:    make(map[int64]time.Time),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.seq = s.seq
	for k, v := range s.carts {
		v.Lines = append([]model.CartLine(nil), v.Lines...)
		c.carts[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]model.OrderItem(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.history {
		c.history[k] = append([]json.RawMessage(nil), v...)
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	c.movements = append([]model.StockMovement(nil), s.movements...)
	for k, v := range s.catalog {
		c.catalog[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	for k, v := range s.alerted {
		c.alerted[k] = v
	}
	for k, v := range s.swept {
		c.swept[k] = v
	}
	return c
}

func (s *memState) next() int64 {
	s.seq++
	return s.seq
}

// MemoryStore is an in-memory repository.Store. Transactions are serialized and roll
// back to a snapshot when fn fails.
type MemoryStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state *memState

	// Now stamps created and updated timestamps.
	Now func() time.Time
	// Errors injects failures by operation name, e.g. "payments.mark_submitted".
	Errors map[string]error
}

var _ repository.Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState(), Now: time.Now, Errors: map[string]error{}}
}

func (s *MemoryStore) Carts() repository.CartRepository       { return memCarts{s} }
func (s *MemoryStore) Orders() repository.OrderRepository     { return memOrders{s} }
func (s *MemoryStore) Payments() repository.PaymentRepository { return memPayments{s} }
func (s *MemoryStore) Stock() repository.StockRepository      { return memStock{s} }
func (s *MemoryStore) Catalog() repository.Catalog            { return memCatalog{s} }

// WithinTransaction runs fn under the store transaction lock.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(repository.Factory) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) lock(op string) (*memState, func(), error) {
	s.mu.Lock()
	if err := s.Errors[op]; err != nil {
		s.mu.Unlock()
		return nil, func() {}, err
	}
	return s.state, s.mu.Unlock, nil
}

// AddProduct seeds a catalog item with stock.
func (s *MemoryStore) AddProduct(item model.CatalogItem, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(item.ProductID, item.ColorID)
	s.state.catalog[k] = item
	s.state.stock[k] = stock
}

// RemoveProduct deletes a catalog item, keeping its stock row.
func (s *MemoryStore) RemoveProduct(productID int64, colorID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.catalog, keyOf(productID, colorID))
}

// AddCoupon seeds a coupon.
func (s *MemoryStore) AddCoupon(c model.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.coupons[c.Code] = c
}

// StockOf returns the current stock of a product or color.
func (s *MemoryStore) StockOf(productID int64, colorID *int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.stock[keyOf(productID, colorID)]
}

// Movements returns every stock movement.
func (s *MemoryStore) Movements() []model.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StockMovement(nil), s.state.movements...)
}

// ResponseHistory returns stored gateway responses of a payment.
func (s *MemoryStore) ResponseHistory(paymentID int64) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.state.history[paymentID]...)
}

// UpdatePayment applies fn to a stored payment.
func (s *MemoryStore) UpdatePayment(id int64, fn func(*model.Payment)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.payments[id]
	fn(&p)
	s.state.payments[id] = p
}

// UpdateOrder applies fn to a stored order.
func (s *MemoryStore) UpdateOrder(id int64, fn func(*model.Order)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.state.orders[id]
	fn(&o)
	s.state.orders[id] = o
}

// UpdateCart applies fn to a stored cart.
func (s *MemoryStore) UpdateCart(id int64, fn func(*model.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.state.carts[id]
	fn(&c)
	s.state.carts[id] = c
}

type memCarts struct{ s *MemoryStore }

func (r memCarts) find(st *memState, match func(model.Cart) bool) (*model.Cart, error) {
	ids := make([]int64, 0, len(st.carts))
	for id := range st.carts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		c := st.carts[id]
		if match(c) {
			c.Lines = append([]model.CartLine(nil), c.Lines...)
			return &c, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r memCarts) ActiveByUser(_ context.Context, userID int64) (*model.Cart, error) {
	st, unlock, err := r.s.lock("carts.active_by_user")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.find(st, func(c model.Cart) bool {
		return c.Status == model.CartStatusActive && c.UserID != nil && *c.UserID == userID
	})
}

func (r memCarts) ActiveBySession(_ context.Context, sessionKey string) (*model.Cart, error) {
	st, unlock, err := r.s.lock("carts.active_by_session")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.find(st, func(c model.Cart) bool {
		return c.Status == model.CartStatusActive && c.UserID == nil && c.SessionKey == sessionKey
	})
}

func (r memCarts) GetByID(_ context.Context, id int64) (*model.Cart, error) {
	st, unlock, err := r.s.lock("carts.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.find(st, func(c model.Cart) bool { return c.ID == id })
}

func (r memCarts) Create(_ context.Context, userID *int64, sessionKey string) (*model.Cart, error) {
	st, unlock, err := r.s.lock("carts.create")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, err := r.find(st, func(c model.Cart) bool {
		if c.Status != model.CartStatusActive {
			return false
		}
		if userID != nil {
			return c.UserID != nil && *c.UserID == *userID
		}
		return c.UserID == nil && c.SessionKey == sessionKey
	}); err == nil {
		return nil, domainErrors.ErrAlreadyExists
	}
	now := r.s.Now()
	c := model.Cart{ID: st.next(), UserID: userID, SessionKey: sessionKey, Status: model.CartStatusActive, LastActivityAt: now, CreatedAt: now}
	st.carts[c.ID] = c
	return &c, nil
}

func (r memCarts) AttachUser(_ context.Context, cartID, userID int64) error {
	st, unlock, err := r.s.lock("carts.attach_user")
	if err != nil {
		return err
	}
	defer unlock()
	c, ok := st.carts[cartID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	uid := userID
	c.UserID = &uid
	st.carts[cartID] = c
	return nil
}

func (r memCarts) SetStatus(_ context.Context, cartID int64, from, to model.CartStatus) (bool, error) {
	st, unlock, err := r.s.lock("carts.set_status")
	if err != nil {
		return false, err
	}
	defer unlock()
	c, ok := st.carts[cartID]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	st.carts[cartID] = c
	return true, nil
}

func (r memCarts) SaveTotals(_ context.Context, cart *model.Cart) error {
	st, unlock, err := r.s.lock("carts.save_totals")
	if err != nil {
		return err
	}
	defer unlock()
	c, ok := st.carts[cart.ID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	c.Subtotal, c.Discount, c.Total = cart.Subtotal, cart.Discount, cart.Total
	c.CouponCode, c.CouponPercent = cart.CouponCode, cart.CouponPercent
	c.LastActivityAt = r.s.Now()
	st.carts[cart.ID] = c
	return nil
}

func (r memCarts) AddLine(_ context.Context, cartID int64, line model.CartLine) error {
	st, unlock, err := r.s.lock("carts.add_line")
	if err != nil {
		return err
	}
	defer unlock()
	c, ok := st.carts[cartID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].SameItem(line.ProductID, line.ColorID) {
			c.Lines[i].Quantity += line.Quantity
			c.Lines[i].UnitPrice = line.UnitPrice
			st.carts[cartID] = c
			return nil
		}
	}
	line.ID = st.next()
	line.CartID = cartID
	c.Lines = append(c.Lines, line)
	st.carts[cartID] = c
	return nil
}

func (r memCarts) UpdateLine(_ context.Context, line model.CartLine) error {
	st, unlock, err := r.s.lock("carts.update_line")
	if err != nil {
		return err
	}
	defer unlock()
	for id, c := range st.carts {
		for i := range c.Lines {
			if c.Lines[i].ID == line.ID {
				c.Lines[i].Quantity = line.Quantity
				c.Lines[i].UnitPrice = line.UnitPrice
				st.carts[id] = c
				return nil
			}
		}
	}
	return domainErrors.ErrNotFound
}

func (r memCarts) DeleteLine(_ context.Context, cartID, lineID int64) error {
	st, unlock, err := r.s.lock("carts.delete_line")
	if err != nil {
		return err
	}
	defer unlock()
	c, ok := st.carts[cartID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
			st.carts[cartID] = c
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (r memCarts) ClearLines(_ context.Context, cartID int64) error {
	st, unlock, err := r.s.lock("carts.clear_lines")
	if err != nil {
		return err
	}
	defer unlock()
	c, ok := st.carts[cartID]
	if !ok {
		return nil
	}
	c.Lines = nil
	st.carts[cartID] = c
	return nil
}

func (r memCarts) ListIdle(_ context.Context, before time.Time, limit int) ([]int64, error) {
	st, unlock, err := r.s.lock("carts.list_idle")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var ids []int64
	for id, c := range st.carts {
		if c.Status == model.CartStatusActive && c.LastActivityAt.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type memOrders struct{ s *MemoryStore }

func (r memOrders) NextSequence(_ context.Context, day time.Time) (int, error) {
	st, unlock, err := r.s.lock("orders.next_sequence")
	if err != nil {
		return 0, err
	}
	defer unlock()
	k := day.Format("20060102")
	st.counters[k]++
	return st.counters[k], nil
}

func (r memOrders) Create(_ context.Context, order *model.Order) error {
	st, unlock, err := r.s.lock("orders.create")
	if err != nil {
		return err
	}
	defer unlock()
	for _, o := range st.orders {
		if o.Number == order.Number {
			return domainErrors.ErrAlreadyExists
		}
	}
	now := r.s.Now()
	order.ID = st.next()
	order.CreatedAt, order.UpdatedAt = now, now
	st.orders[order.ID] = *order
	return nil
}

func (r memOrders) GetByID(_ context.Context, id int64) (*model.Order, error) {
	st, unlock, err := r.s.lock("orders.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	o, ok := st.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &o, nil
}

func (r memOrders) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return r.GetByID(ctx, id)
}

func (r memOrders) UpdateStatus(_ context.Context, id int64, from, to model.OrderStatus) (bool, error) {
	st, unlock, err := r.s.lock("orders.update_status")
	if err != nil {
		return false, err
	}
	defer unlock()
	o, ok := st.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = r.s.Now()
	st.orders[id] = o
	return true, nil
}

func (r memOrders) Items(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	st, unlock, err := r.s.lock("orders.items")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return append([]model.OrderItem(nil), st.items[orderID]...), nil
}

func (r memOrders) AddItems(_ context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	st, unlock, err := r.s.lock("orders.add_items")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		it.ID = st.next()
		it.OrderID = orderID
		out = append(out, it)
	}
	st.items[orderID] = append(st.items[orderID], out...)
	return out, nil
}

type memPayments struct{ s *MemoryStore }

func (r memPayments) find(st *memState, match func(model.Payment) bool) (*model.Payment, error) {
	var found *model.Payment
	for _, p := range st.payments {
		if match(p) && (found == nil || p.ID > found.ID) {
			p := p
			found = &p
		}
	}
	if found == nil {
		return nil, domainErrors.ErrNotFound
	}
	return found, nil
}

func (r memPayments) Create(_ context.Context, payment *model.Payment) error {
	st, unlock, err := r.s.lock("payments.create")
	if err != nil {
		return err
	}
	defer unlock()
	if _, err := r.find(st, func(p model.Payment) bool { return p.Reference == payment.Reference }); err == nil {
		return domainErrors.ErrAlreadyExists
	}
	now := r.s.Now()
	payment.ID = st.next()
	payment.CreatedAt, payment.UpdatedAt = now, now
	st.payments[payment.ID] = *payment
	return nil
}

func (r memPayments) GetByID(_ context.Context, id int64) (*model.Payment, error) {
	st, unlock, err := r.s.lock("payments.get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := st.payments[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) GetForUpdate(ctx context.Context, id int64) (*model.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r memPayments) GetByReference(_ context.Context, reference string) (*model.Payment, error) {
	st, unlock, err := r.s.lock("payments.get_by_reference")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.find(st, func(p model.Payment) bool { return p.Reference == reference })
}

func (r memPayments) GetByExternalID(_ context.Context, externalID string) (*model.Payment, error) {
	st, unlock, err := r.s.lock("payments.get_by_external_id")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.find(st, func(p model.Payment) bool { return p.ExternalID != "" && p.ExternalID == externalID })
}

func (r memPayments) ListByOrder(_ context.Context, orderID int64) ([]model.Payment, error) {
	st, unlock, err := r.s.lock("payments.list_by_order")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []model.Payment
	for _, p := range st.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attempt < out[j].Attempt })
	return out, nil
}

func (r memPayments) LatestByOrder(_ context.Context, orderID int64) (*model.Payment, error) {
	st, unlock, err := r.s.lock("payments.latest_by_order")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var latest *model.Payment
	for _, p := range st.payments {
		if p.OrderID == orderID && (latest == nil || p.Attempt > latest.Attempt) {
			p := p
			latest = &p
		}
	}
	if latest == nil {
		return nil, domainErrors.ErrNotFound
	}
	return latest, nil
}

func (r memPayments) MarkSubmitted(_ context.Context, id int64, externalID, checkoutURL string, response json.RawMessage) (model.PaymentStatus, error) {
	st, unlock, err := r.s.lock("payments.mark_submitted")
	if err != nil {
		return "", err
	}
	defer unlock()
	p, ok := st.payments[id]
	if !ok {
		return "", domainErrors.ErrNotFound
	}
	p.ExternalID, p.CheckoutURL = externalID, checkoutURL
	if p.Status == model.PaymentStatusInitiated {
		p.Status = model.PaymentStatusPending
	}
	if response != nil {
		p.LastResponse = response
		st.history[id] = append(st.history[id], response)
	}
	p.UpdatedAt = r.s.Now()
	st.payments[id] = p
	return p.Status, nil
}

func (r memPayments) UpdateStatus(_ context.Context, id int64, from, to model.PaymentStatus, response json.RawMessage) (bool, error) {
	st, unlock, err := r.s.lock("payments.update_status")
	if err != nil {
		return false, err
	}
	defer unlock()
	p, ok := st.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if response != nil {
		p.LastResponse = response
		st.history[id] = append(st.history[id], response)
	}
	p.UpdatedAt = r.s.Now()
	st.payments[id] = p
	return true, nil
}

func (r memPayments) RecordPoll(_ context.Context, id int64, at time.Time) (int, error) {
	st, unlock, err := r.s.lock("payments.record_poll")
	if err != nil {
		return 0, err
	}
	defer unlock()
	p, ok := st.payments[id]
	if !ok || p.Status.Terminal() {
		return 0, domainErrors.ErrNotFound
	}
	p.PollCount++
	polled := at
	p.LastPolledAt = &polled
	st.payments[id] = p
	return p.PollCount, nil
}

func (r memPayments) AppendResponse(_ context.Context, id int64, response json.RawMessage) error {
	st, unlock, err := r.s.lock("payments.append_response")
	if err != nil {
		return err
	}
	defer unlock()
	p, ok := st.payments[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	p.LastResponse = response
	st.history[id] = append(st.history[id], response)
	st.payments[id] = p
	return nil
}

func (r memPayments) MarkStockAlerted(_ context.Context, id int64, at time.Time) (bool, error) {
	st, unlock, err := r.s.lock("payments.mark_stock_alerted")
	if err != nil {
		return false, err
	}
	defer unlock()
	if _, ok := st.payments[id]; !ok {
		return false, nil
	}
	if _, done := st.alerted[id]; done {
		return false, nil
	}
	st.alerted[id] = at
	return true, nil
}

func (r memPayments) MarkSwept(_ context.Context, id int64, at time.Time) error {
	st, unlock, err := r.s.lock("payments.mark_swept")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := st.payments[id]; !ok {
		return domainErrors.ErrNotFound
	}
	st.swept[id] = at
	return nil
}

func (r memPayments) ListStale(_ context.Context, createdBefore time.Time, limit int) ([]model.Payment, error) {
	st, unlock, err := r.s.lock("payments.list_stale")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []model.Payment
	for _, p := range st.payments {
		if !p.Status.Terminal() && p.CreatedAt.Before(createdBefore) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, iSwept := st.swept[out[i].ID]
		sj, jSwept := st.swept[out[j].ID]
		switch {
		case iSwept != jSwept:
			return !iSwept
		case iSwept && !si.Equal(sj):
			return si.Before(sj)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memStock struct{ s *MemoryStore }

func (r memStock) Lock(ctx context.Context, productID int64, colorID *int64) (int, error) {
	return r.read("stock.lock", productID, colorID)
}

func (r memStock) Available(ctx context.Context, productID int64, colorID *int64) (int, error) {
	return r.read("stock.available", productID, colorID)
}

func (r memStock) read(op string, productID int64, colorID *int64) (int, error) {
	st, unlock, err := r.s.lock(op)
	if err != nil {
		return 0, err
	}
	defer unlock()
	v, ok := st.stock[keyOf(productID, colorID)]
	if !ok {
		return 0, domainErrors.ErrNotFound
	}
	return v, nil
}

func (r memStock) Set(_ context.Context, productID int64, colorID *int64, stock int) error {
	st, unlock, err := r.s.lock("stock.set")
	if err != nil {
		return err
	}
	defer unlock()
	st.stock[keyOf(productID, colorID)] = stock
	return nil
}

func (r memStock) AppendMovement(_ context.Context, m *model.StockMovement) error {
	st, unlock, err := r.s.lock("stock.append_movement")
	if err != nil {
		return err
	}
	defer unlock()
	m.ID = st.next()
	m.CreatedAt = r.s.Now()
	st.movements = append(st.movements, *m)
	return nil
}

func (r memStock) MovementsByOrder(_ context.Context, orderID int64) ([]model.StockMovement, error) {
	st, unlock, err := r.s.lock("stock.movements_by_order")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []model.StockMovement
	for _, m := range st.movements {
		if m.OrderID != nil && *m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memCatalog struct{ s *MemoryStore }

func (r memCatalog) Item(_ context.Context, productID int64, colorID *int64) (*model.CatalogItem, error) {
	st, unlock, err := r.s.lock("catalog.item")
	if err != nil {
		return nil, err
	}
	defer unlock()
	item, ok := st.catalog[keyOf(productID, colorID)]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &item, nil
}

func (r memCatalog) Coupon(_ context.Context, code string) (*model.Coupon, error) {
	st, unlock, err := r.s.lock("catalog.coupon")
	if err != nil {
		return nil, err
	}
	defer unlock()
	c, ok := st.coupons[code]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &c, nil
}
