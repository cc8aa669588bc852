package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/state"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func TestNewRepaymentWatcherDefaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	w := NewRepaymentWatcher(&testhelpers.OrderTrackerStub{}, 0, 0, logger)
	if w.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", w.workers)
	}
	if w.pollInterval != time.Minute {
		t.Fatalf("expected poll interval default to 1m, got %s", w.pollInterval)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for watcher")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRepaymentWatcherRefreshesWatchedOrders(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tracker := &testhelpers.OrderTrackerStub{
		Watched: []string{"a", "b"},
		LoadFn: func(_ context.Context, id string) (state.Order, error) {
			return state.Order{Order: &model.Order{OrderBaseInfo: model.OrderBaseInfo{ID: id, Status: model.OrderStatusProcessing}}}, nil
		},
	}
	w := NewRepaymentWatcher(tracker, 5*time.Millisecond, 2, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	waitFor(t, func() bool {
		tracker.Lock()
		defer tracker.Unlock()
		seen := map[string]bool{}
		for _, id := range tracker.Loaded {
			seen[id] = true
		}
		return seen["a"] && seen["b"] && tracker.Countdowns > 0
	})
	w.Stop()
}

func TestRepaymentWatcherForgetsMissingOrders(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tracker := &testhelpers.OrderTrackerStub{
		Watched: []string{"gone", "open"},
		LoadFn: func(_ context.Context, id string) (state.Order, error) {
			switch id {
			case "gone":
				return state.Order{}, fmt.Errorf("load order %s: %w", id, domainErrors.ErrNotFound)
			default:
				return state.Order{}, fmt.Errorf("GET /api/orders: %w", gobreaker.ErrOpenState)
			}
		},
	}
	w := NewRepaymentWatcher(tracker, 5*time.Millisecond, 1, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	waitFor(t, func() bool {
		tracker.Lock()
		defer tracker.Unlock()
		return len(tracker.Forgotten) > 0
	})
	w.Stop()

	tracker.Lock()
	defer tracker.Unlock()
	for _, id := range tracker.Forgotten {
		if id != "gone" {
			t.Fatalf("only missing orders may be forgotten, got %v", tracker.Forgotten)
		}
	}
}

func TestRepaymentWatcherStopWithoutStart(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	w := NewRepaymentWatcher(&testhelpers.OrderTrackerStub{}, time.Second, 1, logger)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop must not block when never started")
	}
}

func TestRepaymentWatcherRestart(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tracker := &testhelpers.OrderTrackerStub{
		Watched: []string{"a"},
		LoadFn: func(_ context.Context, id string) (state.Order, error) {
			return state.Order{Order: &model.Order{OrderBaseInfo: model.OrderBaseInfo{ID: id, Status: model.OrderStatusProcessing}}}, nil
		},
	}
	w := NewRepaymentWatcher(tracker, 5*time.Millisecond, 1, logger)
	loaded := func() int {
		tracker.Lock()
		defer tracker.Unlock()
		return len(tracker.Loaded)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	w.Start(ctx)
	waitFor(t, func() bool { return loaded() > 0 })
	w.Stop()

	before := loaded()
	w.Start(ctx)
	waitFor(t, func() bool { return loaded() > before })
	w.Stop()
	w.Stop()
}
