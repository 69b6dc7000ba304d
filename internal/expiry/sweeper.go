// Package expiry purges links whose expiry has passed.
package expiry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/snipurl/snip/internal/metrics"
)

// DefaultInterval is how often expired links are purged.
const DefaultInterval = time.Minute

// Store deletes expired links.
type Store interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired links. Redirects check expiry on
// their own, so a late sweep never serves an expired link.
type Sweeper struct {
	store    Store
	logger   *slog.Logger
	metrics  metrics.Recorder
	interval time.Duration
	now      func() time.Time

	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewSweeper creates a new Sweeper.
func NewSweeper(store Store, interval time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Sweeper {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		store:    store,
		logger:   logger.With("component", "expiry.sweeper"),
		metrics:  recorder,
		interval: interval,
		now:      time.Now,
	}
}

// SetClock overrides the time source.
func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}

// Run sweeps once immediately and then every interval. Blocks until ctx
// is cancelled or Shutdown is called. Run after Shutdown returns at once.
func (s *Sweeper) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("sweeper already started")
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.done = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	defer close(s.done)

	s.logger.Info("expiry sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepOnce deletes every link expired at the current time and returns
// how many were removed. Errors are logged.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("expiry sweep failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.metrics.AddLinksExpired(n)
		s.logger.Info("expired links purged", "count", n)
	}
	return n
}

// Shutdown stops the sweep loop and waits for it to exit. A sweeper shut
// down before Run never starts its loop.
// It implements server.ShutdownFunc.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("expiry sweeper shutdown timed out")
		return ctx.Err()
	}
}
