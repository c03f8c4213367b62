package app

import "context"

// Task is the pending result of an asynchronous editor operation.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// failedTask is already complete with err.
func failedTask[T any](err error) *Task[T] {
	t := newTask[T]()
	t.finish(*new(T), err)
	return t
}

func (t *Task[T]) finish(v T, err error) {
	t.value, t.err = v, err
	close(t.done)
}

// Done is closed once the result is available.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Result blocks until the task completes.
func (t *Task[T]) Result() (T, error) {
	<-t.done
	return t.value, t.err
}

// Wait blocks until the task completes or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
