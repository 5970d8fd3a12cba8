package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
	"go.uber.org/zap"
)

// Job is a unit of background work.
type Job = func(ctx context.Context) error

type task struct {
	name string
	run  Job
}

// Pool runs jobs on a fixed set of supervised workers fed by a bounded queue. Jobs
// submitted while the queue is full are dropped and logged. A worker that dies outside
// a job is restarted by the supervisor with backoff.
type Pool struct {
	logger     *zap.Logger
	queue      chan task
	workers    int
	jobTimeout time.Duration
	supervisor *suture.Supervisor

	startOnce sync.Once
	stopOnce  sync.Once
	mu        sync.RWMutex
	closed    bool
	drained   sync.WaitGroup
	cancel    context.CancelFunc
	done      <-chan error
}

// NewPool sizes a pool. Non-positive values fall back to one worker and a queue of 64.
func NewPool(logger *zap.Logger, workers, queueSize int, jobTimeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	shutdown := 10 * time.Second
	if jobTimeout > 0 {
		shutdown = jobTimeout + time.Second
	}
	return &Pool{
		logger:     logger,
		queue:      make(chan task, queueSize),
		workers:    workers,
		jobTimeout: jobTimeout,
		supervisor: suture.New("notification-workers", suture.Spec{
			EventHook:        supervisorHook(logger),
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   5 * time.Second,
			Timeout:          shutdown,
		}),
	}
}

func supervisorHook(logger *zap.Logger) suture.EventHook {
	return func(e suture.Event) {
		logger.Warn("worker supervisor event", zap.String("event", e.String()), zap.Any("details", e.Map()))
	}
}

// Start registers the workers and serves the supervisor in the background. Jobs run
// with a context derived from ctx, so cancelling it aborts in-flight deliveries.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.drained.Add(1)
			p.supervisor.Add(&queueWorker{pool: p, id: i + 1})
		}
		var supervised context.Context
		supervised, p.cancel = context.WithCancel(ctx)
		p.done = p.supervisor.ServeBackground(supervised)
	})
}

// queueWorker is one supervised consumer of the pool queue.
type queueWorker struct {
	pool *Pool
	id   int
}

// Serve drains the queue until it is closed or ctx ends.
func (w *queueWorker) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-w.pool.queue:
			if !ok {
				w.pool.drained.Done()
				return suture.ErrDoNotRestart
			}
			w.pool.execute(ctx, t)
		}
	}
}

func (w *queueWorker) String() string {
	return fmt.Sprintf("notification-worker-%d", w.id)
}

func (p *Pool) execute(parent context.Context, t task) {
	ctx := parent
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, p.jobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("background job panicked", zap.String("job", t.name), zap.Any("panic", r))
		}
	}()
	if err := t.run(ctx); err != nil {
		p.logger.Warn("background job failed", zap.String("job", t.name), zap.Error(err))
	}
}

// Submit enqueues a job without blocking. It reports false when the pool is stopped or full.
func (p *Pool) Submit(name string, job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("job rejected; pool stopped", zap.String("job", name))
		return false
	}
	select {
	case p.queue <- task{name: name, run: job}:
		return true
	default:
		p.logger.Warn("job dropped; queue full", zap.String("job", name))
		return false
	}
}

// Stop closes the queue, waits for queued jobs to finish and shuts the supervisor down.
// If the start context was already cancelled, it returns once the supervisor has exited.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		if p.done != nil {
			p.awaitShutdown()
		}
	})
}

func (p *Pool) awaitShutdown() {
	drained := make(chan struct{})
	go func() {
		p.drained.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-p.done:
		return
	}

	p.cancel()
	if err := <-p.done; err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("worker supervisor exited", zap.Error(err))
	}
}
