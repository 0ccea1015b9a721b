package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpledms/internal/logging"
)

func countingTask(name string, calls *atomic.Int32, removed int, err error) Task {
	return Task{
		Name: name,
		Run: func(ctx context.Context) (int, error) {
			calls.Add(1)
			return removed, err
		},
	}
}

func TestSweeper_RunOnce(t *testing.T) {
	var orphans, shares atomic.Int32
	s := New(time.Hour, time.Minute, logging.Discard(),
		countingTask("test_orphans", &orphans, 2, errors.New("storage down")),
		countingTask("test_shares", &shares, 3, nil),
	)

	before := testutil.ToFloat64(sweepRemovedTotal.WithLabelValues("test_shares"))
	failedBefore := testutil.ToFloat64(sweepRunsTotal.WithLabelValues("test_orphans", "error"))
	res := s.RunOnce(context.Background())

	require.Len(t, res.Tasks, 2)
	assert.True(t, res.Failed)
	assert.Equal(t, "storage down", res.Tasks[0].Error)
	assert.Equal(t, 3, res.Tasks[1].Removed)
	assert.Empty(t, res.Tasks[1].Error)
	assert.Equal(t, int32(1), orphans.Load())
	assert.Equal(t, int32(1), shares.Load())
	assert.Equal(t, before+3, testutil.ToFloat64(sweepRemovedTotal.WithLabelValues("test_shares")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(sweepRunsTotal.WithLabelValues("test_orphans", "error")))
}

func TestSweeper_RunsAtStartAndOnInterval(t *testing.T) {
	var calls atomic.Int32
	s := New(20*time.Millisecond, time.Hour, logging.Discard(), countingTask("test_interval", &calls, 0, nil))

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSweeper_RetriesAfterBackoff(t *testing.T) {
	var calls atomic.Int32
	s := New(time.Hour, 20*time.Millisecond, logging.Discard(),
		countingTask("test_backoff", &calls, 0, errors.New("transient")))

	s.Start(context.Background())
	defer s.Stop()

	// With a one hour interval only the failure backoff can produce a second pass.
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestSweeper_StopWaitsForLoop(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	s := New(time.Hour, time.Hour, logging.Discard(), Task{
		Name: "test_blocking",
		Run: func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			finished.Store(true)
			return 0, ctx.Err()
		},
	})

	s.Start(context.Background())
	<-started
	s.Stop()

	assert.True(t, finished.Load())
	s.Stop()
}

func TestSweeper_StartTwice(t *testing.T) {
	var calls atomic.Int32
	s := New(time.Hour, time.Hour, logging.Discard(), countingTask("test_once", &calls, 0, nil))

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), calls.Load())
}
