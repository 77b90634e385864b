// Package worker provides the bounded dispatch pool C7 uses to parallelize
// per-datagram handling across a fixed number of goroutines, instead of
// spawning one goroutine per request or serializing everything on the
// accept loop.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Dispatch once Close has been called.
var ErrPoolClosed = errors.New("worker: pool closed")

// ErrQueueFull is returned by Dispatch when the queue has no free slot and
// the caller must decide whether to drop the request.
var ErrQueueFull = errors.New("worker: queue full")

// Job is one unit of dispatched work — answering a single received
// datagram.
type Job interface {
	Execute(ctx context.Context) error
}

// JobFunc adapts a plain function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Execute(ctx context.Context) error { return f(ctx) }

// Config configures a Pool.
type Config struct {
	// Workers is the number of goroutines processing the queue. Zero
	// selects runtime.NumCPU() * 4, sized for UDP request handling that
	// is mostly blocked on upstream I/O rather than CPU.
	Workers int

	// QueueSize bounds how many jobs may wait for a free worker. Zero
	// selects Workers * 100.
	QueueSize int

	// PanicHandler, if set, is called with the recovered value whenever
	// a Job's Execute panics. The worker survives and keeps draining
	// the queue.
	PanicHandler func(interface{})
}

// Pool runs Jobs on a fixed set of goroutines, dispatched fire-and-forget:
// Dispatch returns as soon as the job is queued, never waiting for it to
// run or finish. C7 relies on this so one slow upstream response never
// head-of-line blocks the datagrams behind it on the same listener.
type Pool struct {
	queue        chan Job
	wg           sync.WaitGroup
	closed       atomic.Bool
	panicHandler func(interface{})
}

// NewPool starts cfg.Workers goroutines draining a queue of size
// cfg.QueueSize and returns the running Pool.
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 100
	}

	p := &Pool{
		queue:        make(chan Job, cfg.QueueSize),
		panicHandler: cfg.PanicHandler,
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.queue {
		p.execute(job)
	}
}

func (p *Pool) execute(job Job) {
	defer func() {
		if r := recover(); r != nil && p.panicHandler != nil {
			p.panicHandler(r)
		}
	}()
	// The request handler logs its own failures; Dispatch's callers have
	// nothing to do with a returned error, so it is discarded here.
	_ = job.Execute(context.Background())
}

// Dispatch queues job for execution and returns immediately. It returns
// ErrPoolClosed after Close, or ErrQueueFull when every queue slot is
// occupied — the caller (C7's accept loop) is expected to drop the
// request and move on to the next datagram rather than block.
func (p *Pool) Dispatch(job Job) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting new jobs and waits for every already-queued job
// to finish.
func (p *Pool) Close() error {
	if p.closed.Swap(true) {
		return ErrPoolClosed
	}
	close(p.queue)
	p.wg.Wait()
	return nil
}
