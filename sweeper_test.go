package taskvault_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/taskvault/taskvault"
)

func TestSweeperDeletesOnlyPastGracePeriod(t *testing.T) {
	pending := &MockPendingRegistrations{}

	var mu sync.Mutex
	var capturedCutoff time.Time
	pending.On("DeleteExpiredBefore", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(1, nil).
		Run(func(args mock.Arguments) {
			mu.Lock()
			capturedCutoff = args.Get(1).(time.Time)
			mu.Unlock()
		})

	sweeper := taskvault.NewSweeper(pending).
		WithLogger(testLogger{}).
		WithInterval(10 * time.Millisecond)

	start := time.Now()
	sweeper.Start(context.Background())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !capturedCutoff.IsZero()
	}, time.Second, 5*time.Millisecond)

	sweeper.Stop()

	mu.Lock()
	cutoff := capturedCutoff
	mu.Unlock()

	// The cutoff trails the clock by the six minute grace period, so a
	// record expired three minutes ago survives and one expired seven
	// minutes ago does not.
	assert.WithinDuration(t, start.Add(-taskvault.SweepGracePeriod), cutoff, time.Second)

	threeMinutesAgo := start.Add(-3 * time.Minute)
	sevenMinutesAgo := start.Add(-7 * time.Minute)
	assert.True(t, threeMinutesAgo.After(cutoff))
	assert.True(t, sevenMinutesAgo.Before(cutoff))
}

func TestSweeperSurvivesStoreErrors(t *testing.T) {
	pending := &MockPendingRegistrations{}

	var calls atomic.Int32
	pending.On("DeleteExpiredBefore", mock.Anything, mock.Anything).
		Return(0, assert.AnError).
		Run(func(mock.Arguments) { calls.Add(1) })

	sweeper := taskvault.NewSweeper(pending).
		WithLogger(testLogger{}).
		WithInterval(5 * time.Millisecond)

	sweeper.Start(context.Background())

	// The loop keeps ticking after a failed sweep.
	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, time.Millisecond)

	sweeper.Stop()
}

func TestSweeperStopIsIdempotentBeforeStart(t *testing.T) {
	sweeper := taskvault.NewSweeper(&MockPendingRegistrations{}).WithLogger(testLogger{})
	// Stop without Start must not panic or block.
	sweeper.Stop()
}
