package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchRunsJob(t *testing.T) {
	pool := NewPool(Config{Workers: 2, QueueSize: 10})
	defer pool.Close()

	var executed atomic.Bool
	job := JobFunc(func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})

	if err := pool.Dispatch(job); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !executed.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !executed.Load() {
		t.Error("job was not executed")
	}
}

func TestDispatchReturnsImmediately(t *testing.T) {
	pool := NewPool(Config{Workers: 1, QueueSize: 10})
	defer pool.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	job := JobFunc(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})

	start := time.Now()
	if err := pool.Dispatch(job); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Dispatch() blocked for %v, want near-instant return", elapsed)
	}

	<-started
	close(release)
}

func TestDispatchQueueFull(t *testing.T) {
	pool := NewPool(Config{Workers: 1, QueueSize: 1})
	defer pool.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	blocker := JobFunc(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	if err := pool.Dispatch(blocker); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	// Wait until the only worker has taken the blocker off the queue, so the
	// single queue slot is free for the filler.
	<-started

	filler := JobFunc(func(ctx context.Context) error { <-release; return nil })
	if err := pool.Dispatch(filler); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	if err := pool.Dispatch(JobFunc(func(ctx context.Context) error { return nil })); err != ErrQueueFull {
		t.Errorf("Dispatch() on a full queue = %v, want ErrQueueFull", err)
	}

	close(release)
}

func TestDispatchPanicRecovered(t *testing.T) {
	var panicCaught atomic.Bool
	pool := NewPool(Config{
		Workers:   2,
		QueueSize: 10,
		PanicHandler: func(r interface{}) {
			panicCaught.Store(true)
		},
	})
	defer pool.Close()

	if err := pool.Dispatch(JobFunc(func(ctx context.Context) error {
		panic("boom")
	})); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !panicCaught.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !panicCaught.Load() {
		t.Error("panic handler was not called")
	}

	// A worker that recovered from a panic must keep draining the queue.
	var recovered atomic.Bool
	if err := pool.Dispatch(JobFunc(func(ctx context.Context) error {
		recovered.Store(true)
		return nil
	})); err != nil {
		t.Fatalf("Dispatch() error after panic: %v", err)
	}
	deadline = time.Now().Add(time.Second)
	for !recovered.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !recovered.Load() {
		t.Error("pool stopped processing jobs after a panic")
	}
}

func TestCloseWaitsForQueuedJobs(t *testing.T) {
	pool := NewPool(Config{Workers: 2, QueueSize: 10})

	var completed atomic.Int32
	for i := 0; i < 5; i++ {
		pool.Dispatch(JobFunc(func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			completed.Add(1)
			return nil
		}))
	}

	if err := pool.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if completed.Load() != 5 {
		t.Errorf("completed = %d, want 5", completed.Load())
	}

	if err := pool.Dispatch(JobFunc(func(ctx context.Context) error { return nil })); err != ErrPoolClosed {
		t.Errorf("Dispatch() after Close = %v, want ErrPoolClosed", err)
	}
	if err := pool.Close(); err != ErrPoolClosed {
		t.Errorf("second Close() = %v, want ErrPoolClosed", err)
	}
}

func TestConcurrentDispatch(t *testing.T) {
	pool := NewPool(Config{Workers: 4, QueueSize: 200})
	defer pool.Close()

	const jobs = 100
	var completed atomic.Uint64
	var wg sync.WaitGroup
	wg.Add(jobs)

	for i := 0; i < jobs; i++ {
		go func() {
			defer wg.Done()
			err := pool.Dispatch(JobFunc(func(ctx context.Context) error {
				completed.Add(1)
				return nil
			}))
			if err != nil {
				t.Errorf("Dispatch() error: %v", err)
			}
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(time.Second)
	for completed.Load() != jobs && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if completed.Load() != jobs {
		t.Errorf("completed = %d, want %d", completed.Load(), jobs)
	}
}

func BenchmarkDispatch(b *testing.B) {
	pool := NewPool(Config{Workers: 4, QueueSize: 1000})
	defer pool.Close()

	job := JobFunc(func(ctx context.Context) error { return nil })

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Dispatch(job)
	}
}
