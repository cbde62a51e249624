package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is the number of jobs a pool runs at once when no size is given.
const DefaultSize = 4

// Pool bounds how many blocking jobs run at the same time.
type Pool struct {
	sem  *semaphore.Weighted
	size int
	wg   sync.WaitGroup
}

// NewPool creates a pool running at most size jobs concurrently.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Size returns the pool's concurrency limit.
func (p *Pool) Size() int {
	return p.size
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Future delivers the result of a job running on a Pool.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the job finishes or ctx is done. Giving up on a future
// does not stop the job.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Go runs fn on the pool and returns a future for its result.
//
// ctx only gates admission: if it is cancelled while the job waits for a
// slot, the job never runs and the future resolves with ctx.Err(). Once
// started, fn receives a context that is detached from ctx's cancellation,
// so an in-flight call is never aborted by the caller.
func Go[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		// Acquire may succeed on an already cancelled ctx when a slot is free.
		err := ctx.Err()
		if err == nil {
			err = p.sem.Acquire(ctx, 1)
		}
		if err != nil {
			var zero T
			f.resolve(zero, err)
			return
		}
		defer p.sem.Release(1)

		val, err := run(context.WithoutCancel(ctx), fn)
		f.resolve(val, err)
	}()

	return f
}

func run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker job panicked", "panic", r)
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx)
}
