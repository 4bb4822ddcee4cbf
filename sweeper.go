package taskvault

import (
	"context"
	"time"
)

// SweepInterval is how often the reaper wakes up.
const SweepInterval = time.Minute

// SweepGracePeriod is how long an expired temporary account lingers
// before deletion. It leaves a window where a just-expired signup still
// gets a precise "expired" answer instead of "not found".
const SweepGracePeriod = 6 * time.Minute

// Sweeper periodically deletes temporary accounts whose OTP expired
// past the grace period.
type Sweeper struct {
	pending  PendingRegistrations
	logger   Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSweeper(pending PendingRegistrations) *Sweeper {
	return &Sweeper{
		pending:  pending,
		logger:   defLogger{},
		interval: SweepInterval,
		grace:    SweepGracePeriod,
		now:      time.Now,
	}
}

func (s *Sweeper) WithLogger(l Logger) *Sweeper {
	s.logger = l
	return s
}

// WithInterval overrides the wakeup cadence, mostly for tests.
func (s *Sweeper) WithInterval(interval time.Duration) *Sweeper {
	if interval > 0 {
		s.interval = interval
	}
	return s
}

// Start launches the sweep loop in its own goroutine. It runs until the
// context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := s.now().Add(-s.grace)

	removed, err := s.pending.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweep of expired signups failed: %v", err)
		return
	}

	if removed > 0 {
		s.logger.Info("swept %d expired signup(s)", removed)
	}
}
