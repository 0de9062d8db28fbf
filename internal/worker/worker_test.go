package worker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/internal/worker"
)

func TestPoolRunsAllTasks(t *testing.T) {
	t.Parallel()

	pool := worker.NewWorkerPool(4)

	var counter atomic.Int32

	for range 50 {
		pool.Submit(func() error {
			counter.Add(1)
			return nil
		})
	}

	require.NoError(t, pool.Wait())
	assert.Equal(t, int32(50), counter.Load())
}

func TestPoolCollectsAllErrors(t *testing.T) {
	t.Parallel()

	pool := worker.NewWorkerPool(2)

	var completed atomic.Int32

	for i := range 10 {
		pool.Submit(func() error {
			completed.Add(1)

			if i%2 == 0 {
				return errors.Errorf("task %d failed", i)
			}

			return nil
		})
	}

	err := pool.Wait()
	require.Error(t, err)

	// failing tasks never prevent the remaining tasks from running
	assert.Equal(t, int32(10), completed.Load())

	var merr *errors.MultiError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 5, merr.Len())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const maxWorkers = 3

	pool := worker.NewWorkerPool(maxWorkers)

	var running, peak atomic.Int32

	for range 30 {
		pool.Submit(func() error {
			cur := running.Add(1)

			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}

			time.Sleep(time.Millisecond)
			running.Add(-1)

			return nil
		})
	}

	require.NoError(t, pool.Wait())
	assert.LessOrEqual(t, peak.Load(), int32(maxWorkers))
}

func TestPoolGracefulStopAndRestart(t *testing.T) {
	t.Parallel()

	pool := worker.NewWorkerPool(2)

	var counter atomic.Int32

	pool.Submit(func() error {
		counter.Add(1)
		return nil
	})

	require.NoError(t, pool.GracefulStop())
	assert.False(t, pool.IsRunning())
	assert.Equal(t, int32(1), counter.Load())

	// Submit restarts a stopped pool
	pool.Submit(func() error {
		counter.Add(1)
		return nil
	})

	require.NoError(t, pool.Wait())
	assert.True(t, pool.IsRunning())
	assert.False(t, pool.IsStopping())
	assert.Equal(t, int32(2), counter.Load())
}
