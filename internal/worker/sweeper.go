// Package worker runs the periodic maintenance sweep (orphaned documents, expired shares).
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simpledms_sweep_runs_total",
		Help: "Sweep task executions by outcome.",
	}, []string{"task", "result"})

	sweepRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simpledms_sweep_removed_total",
		Help: "Items removed by sweep tasks.",
	}, []string{"task"})

	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "simpledms_sweep_duration_seconds",
		Help:    "Duration of a full sweep pass.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// Task is one unit of sweep work. Run returns how many items it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// TaskResult reports one task of a pass.
type TaskResult struct {
	Task    string `json:"task"`
	Removed int    `json:"removed"`
	Error   string `json:"error,omitempty"`
}

// Result reports a full pass.
type Result struct {
	Tasks    []TaskResult  `json:"tasks"`
	Duration time.Duration `json:"duration_ns"`
	Failed   bool          `json:"failed"`
}

// Sweeper runs its tasks once at start, then every interval. After a failed
// pass the next one is scheduled after backoff instead.
type Sweeper struct {
	tasks    []Task
	interval time.Duration
	backoff  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex // serializes passes
	state  sync.Mutex // guards cancel
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Sweeper. Non-positive durations fall back to one hour and five minutes.
func New(interval, backoff time.Duration, logger *slog.Logger, tasks ...Task) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if backoff <= 0 {
		backoff = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		tasks:    tasks,
		interval: interval,
		backoff:  backoff,
		logger:   logger.With("component", "sweeper"),
	}
}

// Start launches the background loop. Calling Start on a running sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) {
	s.state.Lock()
	defer s.state.Unlock()
	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(loopCtx)
	}()

	s.logger.Info("sweeper started", "interval", s.interval.String(), "retry_backoff", s.backoff.String())
}

// Stop cancels the loop and waits for an in-flight pass to return.
func (s *Sweeper) Stop() {
	s.state.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.state.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context) {
	for {
		next := s.interval
		if res := s.RunOnce(ctx); res.Failed {
			next = s.backoff
		}
		if ctx.Err() != nil {
			return
		}

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunOnce executes every task in order. A failing task does not stop the others.
func (s *Sweeper) RunOnce(ctx context.Context) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res := &Result{Tasks: make([]TaskResult, 0, len(s.tasks))}

	for _, t := range s.tasks {
		if ctx.Err() != nil {
			break
		}
		n, err := t.Run(ctx)
		tr := TaskResult{Task: t.Name, Removed: n}
		sweepRemovedTotal.WithLabelValues(t.Name).Add(float64(n))

		switch {
		case err == nil:
			sweepRunsTotal.WithLabelValues(t.Name, "success").Inc()
			if n > 0 {
				s.logger.Info("sweep task finished", "task", t.Name, "removed", n)
			}
		case errors.Is(err, context.Canceled):
			tr.Error = err.Error()
			sweepRunsTotal.WithLabelValues(t.Name, "canceled").Inc()
		default:
			tr.Error = err.Error()
			res.Failed = true
			sweepRunsTotal.WithLabelValues(t.Name, "error").Inc()
			s.logger.Error("sweep task failed", "task", t.Name, "removed", n, "error", err)
		}
		res.Tasks = append(res.Tasks, tr)
	}

	res.Duration = time.Since(start)
	sweepDurationSeconds.Observe(res.Duration.Seconds())
	return res
}
