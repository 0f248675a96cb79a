package engine

import (
	"context"
	"fmt"
	"sync"
)

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Every dequeued job is reported to done exactly once, including jobs whose
// processing panicked or that were dequeued after ctx was cancelled.
type workerPool[T, R any] struct {
	queue   chan T
	process func(ctx context.Context, t T) (R, error)
	done    func(t T, r R, err error)
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](
	ctx context.Context,
	n, cap int,
	fn func(context.Context, T) (R, error),
	done func(T, R, error),
) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan T, cap),
		process: fn,
		done:    done,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			if err := ctx.Err(); err != nil {
				var zero R
				p.done(t, zero, err)
				continue
			}
			r, err := p.safeProcess(ctx, t)
			p.done(t, r, err)
		case <-ctx.Done():
			return
		}
	}
}

// safeProcess converts a panic in process into ErrComputationFailed so one
// bad batch cannot take the worker down.
func (p *workerPool[T, R]) safeProcess(ctx context.Context, t T) (r R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrComputationFailed, rec)
		}
	}()
	return p.process(ctx, t)
}

// Submit enqueues a job without blocking (returns false if full).
func (p *workerPool[T, R]) Submit(t T) bool {
	select {
	case p.queue <- t:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T, R]) Drain() {
	close(p.queue)
	p.wg.Wait()
}

// QueueLen returns how many jobs are currently queued.
func (p *workerPool[T, R]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T, R]) QueueCap() int {
	return cap(p.queue)
}
