package versioning

import (
	"context"
)

// Future is the eventual result of an asynchronous Manager operation. It is
// resolved exactly once.
type Future[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Go runs fn in a new goroutine and returns a Future for its result.
func Go[V any](ctx context.Context, fn func(context.Context) (V, error)) *Future[V] {
	f := &Future[V]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the Future is resolved.
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the Future is resolved or ctx is done. Cancelling ctx
// stops the wait, not the underlying work.
func (f *Future[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// OnComplete calls cb, on its own goroutine, once the Future is resolved.
func (f *Future[V]) OnComplete(cb func(V, error)) {
	go func() {
		<-f.done
		cb(f.val, f.err)
	}()
}
