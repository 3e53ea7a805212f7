package asyncx

import (
	"context"
	"sync"
)

// ─── Future ──────────────────────────────────────────────────────────────────

type result[T any] struct {
	value T
	err   error
}

// Future represents a value that will be available asynchronously.
// Create one with Run and retrieve its value with Await.
type Future[T any] struct {
	ch   chan result[T]
	done chan struct{}
	res  *result[T]
	mu   sync.Mutex
}

// Run executes fn in a goroutine and returns a Future for its result.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{
		ch:   make(chan result[T], 1),
		done: make(chan struct{}),
	}
	go func() {
		v, err := fn()
		f.ch <- result[T]{value: v, err: err}
		close(f.done)
	}()
	return f
}

// Await blocks until the Future completes. Subsequent calls return the
// cached result.
func (f *Future[T]) Await() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.res == nil {
		r := <-f.ch
		f.res = &r
	}
	return f.res.value, f.res.err
}

// AwaitCtx is Await bounded by ctx. The underlying work keeps running when
// ctx expires first.
func (f *Future[T]) AwaitCtx(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Await()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// ─── AllSettled ──────────────────────────────────────────────────────────────

// Result holds the outcome of a single settled async operation.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the result carries no error.
func (r Result[T]) OK() bool { return r.Err == nil }

// AllSettled runs all fns concurrently and always returns one Result per fn,
// in input order.
func AllSettled[T any](ctx context.Context, fns ...func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(fns))
	var wg sync.WaitGroup
	wg.Add(len(fns))

	for i, fn := range fns {
		go func() {
			defer wg.Done()
			v, err := fn(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}()
	}
	wg.Wait()
	return results
}
