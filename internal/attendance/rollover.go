package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RolloverWatcher recomputes the visible attendance week when the wall-clock
// date advances. It fires once at each natural-day boundary, guarding against
// the agent running across midnight, and exposes WakeCheck through the
// manager for on-demand re-checks after a suspend.
type RolloverWatcher struct {
	manager *Manager
	logger  *zap.Logger

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewRolloverWatcher creates a rollover watcher
func NewRolloverWatcher(manager *Manager, logger *zap.Logger) *RolloverWatcher {
	return &RolloverWatcher{
		manager: manager,
		logger:  logger,
	}
}

// Start starts the watcher
func (w *RolloverWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("rollover watcher is already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true

	w.logger.Info("RolloverWatcher started")

	go w.watchLoop()

	return nil
}

// Stop stops the watcher
func (w *RolloverWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return
	}

	w.isRunning = false
	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("RolloverWatcher stopped")
}

// Name returns the worker name for identification
func (w *RolloverWatcher) Name() string {
	return "RolloverWatcher"
}

// watchLoop sleeps until each upcoming midnight and runs the wake check
func (w *RolloverWatcher) watchLoop() {
	for {
		now := w.manager.now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

		timer := time.NewTimer(next.Sub(now))

		select {
		case <-w.ctx.Done():
			timer.Stop()
			w.logger.Debug("Watch loop context cancelled")
			return

		case <-timer.C:
			ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
			if err := w.manager.WakeCheck(ctx); err != nil {
				w.logger.Error("Midnight week rollover failed", zap.Error(err))
			}
			cancel()
		}
	}
}
