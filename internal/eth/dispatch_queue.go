package eth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var ErrQueueClosed = errors.New("dispatch queue is closed")

type Task func(ctx context.Context) error

// DispatchQueue runs submitted tasks on at most `concurrency` goroutines.
// Submission never blocks; tasks wait in a backlog until a slot frees up.
//
// OnEmpty returns once the backlog is empty (every task has started), OnIdle
// once additionally no task is running. A failing or panicking task is logged
// and never affects its siblings.
type DispatchQueue struct {
	name string
	ctx  context.Context
	sem  *semaphore.Weighted

	mu      sync.Mutex
	backlog []Task
	active  int
	closed  bool
	changed chan struct{}
}

// NewDispatchQueue starts the queue's dispatcher. Tasks run with ctx; once ctx
// is done the dispatcher stops and queued tasks are discarded.
func NewDispatchQueue(ctx context.Context, name string, concurrency int) *DispatchQueue {
	if concurrency < 1 {
		concurrency = 1
	}
	q := &DispatchQueue{
		name:    name,
		ctx:     ctx,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		changed: make(chan struct{}),
	}
	go q.dispatch()
	return q
}

func (q *DispatchQueue) Submit(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.backlog = append(q.backlog, task)
	q.notifyLocked()
	return nil
}

// Close rejects further submissions. Already queued and running tasks still
// complete.
func (q *DispatchQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.notifyLocked()
	}
}

// Pending is the number of submitted tasks that have not started yet.
func (q *DispatchQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Active is the number of tasks currently running.
func (q *DispatchQueue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

func (q *DispatchQueue) OnEmpty(ctx context.Context) error {
	return q.waitFor(ctx, func() bool { return len(q.backlog) == 0 })
}

func (q *DispatchQueue) OnIdle(ctx context.Context) error {
	return q.waitFor(ctx, func() bool { return len(q.backlog) == 0 && q.active == 0 })
}

func (q *DispatchQueue) dispatch() {
	for {
		err := q.waitFor(q.ctx, func() bool { return len(q.backlog) > 0 || q.closed })
		if err != nil {
			q.discard()
			return
		}

		q.mu.Lock()
		if len(q.backlog) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		if err := q.sem.Acquire(q.ctx, 1); err != nil {
			q.discard()
			return
		}

		q.mu.Lock()
		task := q.backlog[0]
		q.backlog[0] = nil
		q.backlog = q.backlog[1:]
		q.active++
		q.notifyLocked()
		q.mu.Unlock()

		go q.run(task)
	}
}

func (q *DispatchQueue) run(task Task) {
	defer func() {
		q.sem.Release(1)
		q.mu.Lock()
		q.active--
		q.notifyLocked()
		q.mu.Unlock()
	}()

	if err := q.safeCall(task); err != nil {
		zap.L().Error("Dispatch task failed",
			zap.String("queue", q.name),
			zap.Error(err),
		)
	}
}

func (q *DispatchQueue) safeCall(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(q.ctx)
}

func (q *DispatchQueue) discard() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n := len(q.backlog); n > 0 {
		zap.L().Warn("Discarding queued tasks",
			zap.String("queue", q.name),
			zap.Int("count", n),
		)
		q.backlog = nil
		q.notifyLocked()
	}
}

func (q *DispatchQueue) waitFor(ctx context.Context, cond func() bool) error {
	for {
		q.mu.Lock()
		if cond() {
			q.mu.Unlock()
			return nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *DispatchQueue) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}
