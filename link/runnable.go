package link

import "context"

// Runnable is one stage task. Building a link never starts it; a scheduler
// calls Run exactly once, on its own goroutine.
type Runnable struct {
	name string
	run  func(ctx context.Context) error
}

// NewRunnable wraps fn as a named Runnable.
func NewRunnable(name string, fn func(ctx context.Context) error) *Runnable {
	return &Runnable{name: name, run: fn}
}

// Name identifies the runnable in logs, spans and errors.
func (r *Runnable) Name() string { return r.name }

// Run executes the task until its ingress is exhausted or ctx is cancelled.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// Link is the product of a builder: the tasks to schedule and the output
// streams to hand to downstream builders.
type Link[T any] struct {
	Runnables []*Runnable
	Egressors []*PacketStream[T]
}

func recv[T any](ctx context.Context, ch <-chan T) (T, bool, error) {
	select {
	case item, ok := <-ch:
		return item, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func send[T any](ctx context.Context, ch chan<- T, item T) error {
	select {
	case ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closeAll[T any](chs []chan T) {
	for _, ch := range chs {
		close(ch)
	}
}

func makeChannels[T any](n, capacity int) []chan T {
	chs := make([]chan T, n)
	for i := range chs {
		chs[i] = make(chan T, capacity)
	}
	return chs
}
