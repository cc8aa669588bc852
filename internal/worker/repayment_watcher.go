package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/state"
)

// OrderTracker exposes the subset of application functionality required by the watcher.
type OrderTracker interface {
	WatchedOrders() []string
	LoadOrder(ctx context.Context, orderID string) (state.Order, error)
	RefreshCountdown(now time.Time)
	ForgetOrder(orderID string)
}

// RepaymentWatcher periodically refreshes opened orders so countdowns and
// server-side status changes reach observers.
type RepaymentWatcher struct {
	orders       OrderTracker
	pollInterval time.Duration
	workers      int
	logger       *slog.Logger
	now          func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewRepaymentWatcher constructs the watcher worker pool.
func NewRepaymentWatcher(orders OrderTracker, pollInterval time.Duration, workers int, logger *slog.Logger) *RepaymentWatcher {
	if workers <= 0 {
		workers = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &RepaymentWatcher{
		orders:       orders,
		pollInterval: pollInterval,
		workers:      workers,
		logger:       logger,
		now:          time.Now,
	}
}

// Start launches background refreshing. It is a no-op while already running;
// a stopped watcher may be started again.
func (w *RepaymentWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	jobs := make(chan string, w.workers)

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(runCtx, jobs)
	}

	w.wg.Add(1)
	go w.dispatch(runCtx, jobs)
}

// Stop waits for all workers to finish.
func (w *RepaymentWatcher) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *RepaymentWatcher) dispatch(ctx context.Context, jobs chan<- string) {
	defer w.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx, jobs)
		}
	}
}

func (w *RepaymentWatcher) tick(ctx context.Context, jobs chan<- string) {
	w.orders.RefreshCountdown(w.now())
	for _, id := range w.orders.WatchedOrders() {
		select {
		case <-ctx.Done():
			return
		case jobs <- id:
		}
	}
}

func (w *RepaymentWatcher) worker(ctx context.Context, jobs <-chan string) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-jobs:
			if !ok {
				return
			}
			w.refresh(ctx, id)
		}
	}
}

func (w *RepaymentWatcher) refresh(ctx context.Context, orderID string) {
	st, err := w.orders.LoadOrder(ctx, orderID)
	switch {
	case err == nil:
	case errors.Is(err, domainErrors.ErrNotFound):
		w.logger.Info("watched order disappeared", slog.String("order_id", orderID))
		w.orders.ForgetOrder(orderID)
		return
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, context.Canceled):
		w.logger.Debug("order refresh skipped", slog.String("order_id", orderID), slog.String("error", err.Error()))
		return
	default:
		w.logger.Error("order refresh failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
		return
	}

	if st.Order != nil && st.Order.Status.IsTerminal() {
		w.logger.Info("watched order settled",
			slog.String("order_id", orderID),
			slog.String("status", string(st.Order.Status)))
	}
}
