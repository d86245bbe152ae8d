// Package scheduler fires the prospecting pipeline on a fixed interval with
// single-flight semantics: a tick that lands while a run is still in flight
// is dropped, never queued. Run failures are recorded and logged; the
// scheduler itself only stops on context cancellation.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/reka-labs/salesbot/internal/pipeline"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) (pipeline.Result, error)

// Status is a point-in-time snapshot for the ops surface.
type Status struct {
	Running    bool             `json:"running"`
	Interval   string           `json:"interval"`
	LastRunAt  *time.Time       `json:"last_run_at,omitempty"`
	LastResult *pipeline.Result `json:"last_result,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
}

// Scheduler triggers runs periodically and on demand through one
// single-flight gate.
type Scheduler struct {
	run      RunFunc
	interval time.Duration

	inFlight atomic.Bool
	wg       sync.WaitGroup

	mu         sync.Mutex
	lastRunAt  *time.Time
	lastResult *pipeline.Result
	lastErr    error
}

// New creates a Scheduler firing every interval.
func New(run RunFunc, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{run: run, interval: interval}
}

// Start runs the tick loop until ctx is cancelled, firing once immediately.
// On cancellation it stops ticking and waits for any in-flight run to wind
// down; the pipeline observes the cancellation between candidates rather
// than being killed mid-flight.
func (s *Scheduler) Start(ctx context.Context) {
	zap.L().Info("scheduler: started", zap.Duration("interval", s.interval))

	s.Trigger(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("scheduler: winding down")
			s.wg.Wait()
			zap.L().Info("scheduler: stopped")
			return
		case <-ticker.C:
			s.Trigger(ctx)
		}
	}
}

// Trigger starts a run unless one is already in flight. The run executes off
// the caller's goroutine; Trigger reports whether it was admitted.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		zap.L().Info("scheduler: run already in flight, tick dropped")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)

		started := time.Now().UTC()
		result, err := s.run(ctx)

		s.mu.Lock()
		s.lastRunAt = &started
		s.lastResult = &result
		s.lastErr = err
		s.mu.Unlock()

		if err != nil {
			zap.L().Error("scheduler: run failed", zap.Error(err))
			return
		}
		zap.L().Info("scheduler: run completed",
			zap.Int("leads_created", result.LeadsCreated),
			zap.Duration("took", result.FinishedAt.Sub(result.StartedAt)),
		)
	}()
	return true
}

// Wait blocks until any in-flight run finishes.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Status reports the current scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:    s.inFlight.Load(),
		Interval:   s.interval.String(),
		LastRunAt:  s.lastRunAt,
		LastResult: s.lastResult,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
