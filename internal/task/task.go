// Package task provides a single-value future for work handed to a pool.
package task

import "sync/atomic"

// Submitter accepts jobs for background execution.
type Submitter interface {
	Submit(job func()) error
}

// Future holds the result of one background computation. The value can be
// taken exactly once.
type Future[T any] struct {
	done  chan struct{}
	value T
	taken atomic.Bool
}

// Submit schedules fn on s and returns the future of its result.
func Submit[T any](s Submitter, fn func() T) (*Future[T], error) {
	f := &Future[T]{done: make(chan struct{})}
	err := s.Submit(func() {
		defer close(f.done)
		f.value = fn()
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Ready reports whether the computation has finished.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Take returns the result if it is ready and has not been taken before.
func (f *Future[T]) Take() (T, bool) {
	var zero T
	if !f.Ready() || !f.taken.CompareAndSwap(false, true) {
		return zero, false
	}
	v := f.value
	f.value = zero
	return v, true
}

// Done returns a channel closed when the computation finishes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
