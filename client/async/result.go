package async

import "context"

// Result represents in-flight or completed async work.
type Result[T any] struct {
	done   chan struct{}
	val    T
	err    error
	cancel context.CancelFunc
}

// Done returns a channel that is closed when the work completes.
func (r *Result[T]) Done() <-chan struct{} { return r.done }

// Value blocks until the work completes and returns its outcome.
func (r *Result[T]) Value() (T, error) {
	<-r.done
	return r.val, r.err
}

// Cancel cancels the work's context.
func (r *Result[T]) Cancel() {
	r.cancel()
}
