package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/checkout/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

// SweepFacade exposes the subset of application functionality required by the sweeper.
type SweepFacade interface {
	StalePayments(ctx context.Context, limit int) ([]model.Payment, error)
	SweepPayment(ctx context.Context, payment model.Payment) error
	ReapIdleCarts(ctx context.Context, limit int) (int, error)
}

// PaymentSweeper resolves payments nobody polls any more and abandons idle carts.
type PaymentSweeper struct {
	facade    SweepFacade
	interval  time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs   chan model.Payment
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPaymentSweeper constructs the sweeper worker pool.
func NewPaymentSweeper(facade SweepFacade, interval time.Duration, batchSize, workers int, logger *slog.Logger) *PaymentSweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &PaymentSweeper{
		facade:    facade,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
		jobs:      make(chan model.Payment, batchSize*workers),
	}
}

// Start launches background processing.
func (s *PaymentSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (s *PaymentSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *PaymentSweeper) dispatch(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchAndDispatch(ctx)
			s.reapCarts(ctx)
		}
	}
}

func (s *PaymentSweeper) fetchAndDispatch(ctx context.Context) {
	payments, err := s.facade.StalePayments(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("fetch stale payments failed", slog.String("error", err.Error()))
		return
	}
	for _, payment := range payments {
		select {
		case <-ctx.Done():
			return
		case s.jobs <- payment:
		}
	}
}

func (s *PaymentSweeper) reapCarts(ctx context.Context) {
	if _, err := s.facade.ReapIdleCarts(ctx, s.batchSize); err != nil {
		s.logger.Error("reap idle carts failed", slog.String("error", err.Error()))
	}
}

func (s *PaymentSweeper) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case payment, ok := <-s.jobs:
			if !ok {
				return
			}
			s.handlePayment(ctx, payment)
		}
	}
}

func (s *PaymentSweeper) handlePayment(ctx context.Context, payment model.Payment) {
	err := s.facade.SweepPayment(ctx, payment)
	if err == nil {
		return
	}

	var limited gateway.TooManyRequestsError
	switch {
	case errors.As(err, &limited):
		s.logger.Warn("gateway rate limited", slog.Duration("retry_after", limited.RetryAfter))
		select {
		case <-ctx.Done():
		case <-time.After(limited.RetryAfter):
		}
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		s.logger.Warn("gateway unavailable, payment kept for next sweep", slog.String("reference", payment.Reference))
	default:
		s.logger.Error("sweep payment failed", slog.String("reference", payment.Reference), slog.String("error", err.Error()))
	}
}
