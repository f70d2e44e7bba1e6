// Package future provides a single resolution future for requests running on
// session goroutines. Waiting never cancels the request: giving up on a
// future only stops the caller from observing its outcome.
package future

import (
	"context"
	"sync"
	"time"

	"github.com/grafana/dskit/multierror"
	"github.com/pkg/errors"

	"github.com/grafana/cqlbind/pkg/cqlerr"
)

// ErrWaitTimeout is returned by WaitTimeout when the future is still pending.
// It never comes from the server.
var ErrWaitTimeout = errors.New("future: wait timed out")

// Future is the pending outcome of one request. The first resolution wins;
// every wait observes the same value and error.
type Future[T any] struct {
	done chan struct{}
	once sync.Once

	val T
	err error

	mtx      sync.Mutex
	callback func(T, error)
	resolved bool
}

// Resolver completes a future. Only the first call has an effect.
type Resolver[T any] func(T, error)

// New returns a pending future and the function that resolves it.
func New[T any]() (*Future[T], Resolver[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a future that is already complete.
func Resolved[T any](v T, err error) *Future[T] {
	f, resolve := New[T]()
	resolve(v, err)
	return f
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.mtx.Lock()
		f.val, f.err = v, err
		f.resolved = true
		cb := f.callback
		close(f.done)
		f.mtx.Unlock()

		if cb != nil {
			cb(v, err)
		}
	})
}

// Wait blocks until the future resolves.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// WaitTimeout blocks for at most d. A future still pending after d reports
// ErrWaitTimeout and stays pending.
func (f *Future[T]) WaitTimeout(d time.Duration) (T, error) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-f.done:
		return f.val, f.err
	case <-t.C:
		var zero T
		return zero, ErrWaitTimeout
	}
}

// WaitContext blocks until the future resolves or ctx is done.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ready reports whether the future has resolved.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// OnComplete registers cb to run once with the outcome. On a resolved future
// cb runs immediately on the calling goroutine, otherwise on the goroutine
// that resolves it. Only one callback may be registered.
func (f *Future[T]) OnComplete(cb func(T, error)) error {
	f.mtx.Lock()
	if f.callback != nil {
		f.mtx.Unlock()
		return cqlerr.ErrCallbackAlreadySet
	}
	f.callback = cb
	resolved := f.resolved
	f.mtx.Unlock()

	if resolved {
		cb(f.val, f.err)
	}
	return nil
}

// WaitAll waits for every future and returns their values in order, along
// with all errors combined.
func WaitAll[T any](futures ...*Future[T]) ([]T, error) {
	out := make([]T, len(futures))
	errs := multierror.New()
	for i, f := range futures {
		v, err := f.Wait()
		if err != nil {
			errs.Add(err)
			continue
		}
		out[i] = v
	}
	return out, errs.Err()
}
