package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := New(4, 16, nil, nil)
	defer p.Stop()

	var done atomic.Int64
	const n = 100
	for i := 0; i < n; i++ {
		p.Submit(func(ctx context.Context) {
			done.Add(1)
		})
	}

	require.Eventually(t, func() bool { return done.Load() == n }, time.Second, time.Millisecond)
}

func TestPoolStopWaitsForWorkers(t *testing.T) {
	p := New(2, 4, nil, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	p.Submit(func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight task finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the in-flight task finished")
	}

	assert.True(t, p.Stopped())
}

func TestPoolSubmitAfterStopIsNoop(t *testing.T) {
	p := New(1, 1, nil, nil)
	p.Stop()

	var called atomic.Bool
	p.Submit(func(ctx context.Context) { called.Store(true) })

	time.Sleep(10 * time.Millisecond)
	assert.False(t, called.Load())
}

func TestPoolDefaultsInvalidSizes(t *testing.T) {
	p := New(0, -1, nil, nil)
	defer p.Stop()

	done := make(chan struct{})
	p.Submit(func(ctx context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran with defaulted pool size")
	}
}

func TestPoolQueueLen(t *testing.T) {
	p := New(1, 8, nil, nil)
	defer p.Stop()

	block := make(chan struct{})
	p.Submit(func(ctx context.Context) { <-block })

	for i := 0; i < 3; i++ {
		p.Submit(func(ctx context.Context) {})
	}

	require.Eventually(t, func() bool { return p.QueueLen() == 3 }, time.Second, time.Millisecond)
	close(block)
}

func TestPoolWorkerStateIsPerWorkerAndTornDown(t *testing.T) {
	var built atomic.Int64
	var closed atomic.Int64

	p := New(3, 8, func() any {
		id := built.Add(1)
		return &id
	}, func(s any) {
		closed.Add(1)
	})

	var seen sync.Map
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		p.Submit(func(ctx context.Context) {
			defer wg.Done()
			id := WorkerState(ctx).(*int64)
			seen.Store(*id, true)
		})
	}
	wg.Wait()
	p.Stop()

	count := 0
	seen.Range(func(k, v any) bool { count++; return true })
	assert.LessOrEqual(t, count, 3)
	assert.Equal(t, built.Load(), closed.Load())
}

func TestPoolNoWorkerStateReturnsNil(t *testing.T) {
	p := New(1, 1, nil, nil)
	defer p.Stop()

	done := make(chan struct{})
	p.Submit(func(ctx context.Context) {
		assert.Nil(t, WorkerState(ctx))
		close(done)
	})
	<-done
}
