package meetings

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"

	"log/slog"
)

var (
	// ErrQueueClosed is returned when scheduling after queue stop.
	ErrQueueClosed = errors.New("meetings: queue closed")
	// ErrQueueFull indicates the queue is saturated and the request was dropped.
	ErrQueueFull = errors.New("meetings: queue full")
)

// Runner executes a provisioning request.
type Runner interface {
	Provision(ctx context.Context, req Request)
}

// QueueOptions bound the provisioning worker pool.
type QueueOptions struct {
	Size    int
	Workers int
}

type queuedRequest struct {
	ctx context.Context
	req Request
}

// Queue runs provisioning requests on a bounded worker pool so the
// webhook path never blocks on provider calls.
type Queue struct {
	runner Runner
	jobs   chan queuedRequest
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewQueue starts the worker pool.
func NewQueue(runner Runner, opts QueueOptions) *Queue {
	if opts.Size <= 0 {
		opts.Size = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}

	q := &Queue{
		runner: runner,
		jobs:   make(chan queuedRequest, opts.Size),
		stop:   make(chan struct{}),
	}

	q.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go q.worker()
	}
	return q
}

// Schedule hands a confirmed request to the pool without blocking.
func (q *Queue) Schedule(ctx context.Context, req Request) error {
	select {
	case <-q.stop:
		return ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- queuedRequest{ctx: ctx, req: req}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the workers after draining queued requests.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.stop)
		close(q.jobs)
		q.wg.Wait()
	})
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j queuedRequest) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.WF.Error("panic recovered",
				slog.String("event", "provision.panic"),
				slog.String("rid", logger.RIDFrom(ctx)),
				slog.Any("err", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	q.runner.Provision(ctx, j.req)
}
