package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper drops lockout records that can no longer affect a login decision
type Sweeper interface {
	Sweep() int
	Len() int
}

// LockoutSweeper periodically sweeps the in-memory lockout tracker so that
// identifiers which failed once and never returned do not accumulate
type LockoutSweeper struct {
	tracker  Sweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLockoutSweeper creates a new sweeper. A non-positive interval defaults to five minutes.
func NewLockoutSweeper(tracker Sweeper, logger *slog.Logger, interval time.Duration) *LockoutSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &LockoutSweeper{
		tracker:  tracker,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled
func (s *LockoutSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.stopCh:
			s.logger.Info("lockout sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("lockout sweeper context cancelled")
			return
		}
	}
}

func (s *LockoutSweeper) runSweep() {
	removed := s.tracker.Sweep()
	if removed > 0 {
		s.logger.Info("lockout sweep completed",
			slog.Int("removed", removed),
			slog.Int("tracked", s.tracker.Len()),
		)
	}
}

// Stop signals the sweeper to stop. Safe to call more than once.
func (s *LockoutSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
