package app

import (
	"context"
	"sync"
)

// Task is a one-shot future. The function runs once in its own goroutine
// and the result is kept for every later Wait.
type Task[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// Go starts fn and returns its task.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		v, err := fn(ctx)
		t.resolve(v, err)
	}()
	return t
}

func (t *Task[T]) resolve(v T, err error) {
	t.once.Do(func() {
		t.val, t.err = v, err
		close(t.done)
	})
}

// Done is closed once the task has resolved.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task resolves or ctx ends. A resolved result
// wins over a cancelled ctx.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	default:
	}
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
