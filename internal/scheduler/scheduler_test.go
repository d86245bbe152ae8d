package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reka-labs/salesbot/internal/pipeline"
)

func TestScheduler_TriggerSingleFlight(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32

	s := New(func(ctx context.Context) (pipeline.Result, error) {
		runs.Add(1)
		<-release
		return pipeline.Result{LeadsCreated: 1}, nil
	}, time.Hour)

	assert.True(t, s.Trigger(context.Background()))

	// Wait for the run goroutine to be in flight before probing the gate.
	require.Eventually(t, func() bool { return s.Status().Running }, time.Second, time.Millisecond)

	assert.False(t, s.Trigger(context.Background()))
	assert.False(t, s.Trigger(context.Background()))

	close(release)
	s.Wait()

	assert.Equal(t, int32(1), runs.Load())
	assert.True(t, s.Trigger(context.Background()))
	s.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestScheduler_StatusRecordsRuns(t *testing.T) {
	s := New(func(ctx context.Context) (pipeline.Result, error) {
		return pipeline.Result{LeadsCreated: 3}, nil
	}, time.Hour)

	require.True(t, s.Trigger(context.Background()))
	s.Wait()

	st := s.Status()
	assert.False(t, st.Running)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, 3, st.LastResult.LeadsCreated)
	assert.NotNil(t, st.LastRunAt)
	assert.Empty(t, st.LastError)
}

func TestScheduler_RunFailureRecorded(t *testing.T) {
	s := New(func(ctx context.Context) (pipeline.Result, error) {
		return pipeline.Result{}, errors.New("database unavailable")
	}, time.Hour)

	require.True(t, s.Trigger(context.Background()))
	s.Wait()

	st := s.Status()
	assert.Contains(t, st.LastError, "database unavailable")

	// A failed run does not wedge the gate.
	assert.True(t, s.Trigger(context.Background()))
	s.Wait()
}

func TestScheduler_StartFiresImmediatelyAndStops(t *testing.T) {
	var runs atomic.Int32
	s := New(func(ctx context.Context) (pipeline.Result, error) {
		runs.Add(1)
		return pipeline.Result{}, nil
	}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestScheduler_OverlappingTickDropped(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32

	s := New(func(ctx context.Context) (pipeline.Result, error) {
		runs.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return pipeline.Result{}, nil
	}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	// Several intervals pass while the first run blocks; every tick must be
	// dropped rather than queued.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	cancel()
	<-done
}

func TestScheduler_TickFiresAgainAfterRun(t *testing.T) {
	var runs atomic.Int32
	s := New(func(ctx context.Context) (pipeline.Result, error) {
		runs.Add(1)
		return pipeline.Result{}, nil
	}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
