// Package async runs calls in the background with a bound on how many
// are in flight, returning a [Result] per call.
//
//	q := async.NewQueue(4)
//	for _, u := range urls {
//		async.Call(ctx, q, func(ctx context.Context) client.Response[[]byte] {
//			return client.Get(ctx, c, u, client.Bytes())
//		})
//	}
//	err := q.Wait()
package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/adamwoolhether/httpcall/client"
)

// ErrQueueShutdown is the error of work started after [Queue.Shutdown].
var ErrQueueShutdown = errors.New("queue shut down")

// Queue manages a batch of concurrent async work.
type Queue struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      *semaphore.Weighted
	shutdown atomic.Bool
	errs     []error
}

// NewQueue creates a Queue running at most maxConcurrent pieces of work
// at once. If maxConcurrent <= 0, concurrency is unlimited.
func NewQueue(maxConcurrent int) *Queue {
	q := &Queue{}
	if maxConcurrent > 0 {
		q.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return q
}

// Wait blocks until all work in the queue completes.
// Returns all errors joined via errors.Join.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown prevents queued work that has not started from running.
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}

// Start launches fn in a new goroutine managed by q and returns a Result
// for tracking it. A nil q runs fn without a limit.
func Start[T any](ctx context.Context, q *Queue, fn func(context.Context) (T, error)) *Result[T] {
	if q == nil {
		q = NewQueue(0)
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Result[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	q.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(r.done)
			q.wg.Done()
		}()

		if q.sem != nil {
			if err := q.sem.Acquire(ctx, 1); err != nil {
				r.err = err
				q.recordErr(err)
				return
			}
			defer q.sem.Release(1)
		}

		if q.shutdown.Load() {
			r.err = ErrQueueShutdown
			q.recordErr(r.err)
			return
		}

		r.val, r.err = fn(ctx)
		if r.err != nil {
			q.recordErr(r.err)
		}
	}()

	return r
}

// Call is [Start] for a client call. The Result's error is the
// envelope's [client.Response.Error].
func Call[T any](ctx context.Context, q *Queue, fn func(context.Context) client.Response[T]) *Result[client.Response[T]] {
	return Start(ctx, q, func(ctx context.Context) (client.Response[T], error) {
		resp := fn(ctx)
		return resp, resp.Error()
	})
}
