package element

import "sync/atomic"

// Identity forwards every item unchanged.
func Identity[T any]() Processor[T, T] {
	return ProcessorFunc[T, T](func(item T) (T, bool) { return item, true })
}

// Map applies f to every item.
func Map[I, O any](f func(I) O) Processor[I, O] {
	return ProcessorFunc[I, O](func(item I) (O, bool) { return f(item), true })
}

// Filter keeps the items for which keep returns true.
func Filter[T any](keep func(T) bool) Processor[T, T] {
	return ProcessorFunc[T, T](func(item T) (T, bool) {
		if !keep(item) {
			var zero T
			return zero, false
		}
		return item, true
	})
}

// Chain runs first then second; a drop in either drops the item.
func Chain[A, B, C any](first Processor[A, B], second Processor[B, C]) Processor[A, C] {
	return ProcessorFunc[A, C](func(item A) (C, bool) {
		mid, ok := first.Process(item)
		if !ok {
			var zero C
			return zero, false
		}
		return second.Process(mid)
	})
}

// Counter forwards items unchanged and counts them. Count may be read from
// any goroutine while the stage runs.
type Counter[T any] struct {
	n atomic.Int64
}

// NewCounter creates a Counter.
func NewCounter[T any]() *Counter[T] { return &Counter[T]{} }

func (c *Counter[T]) Process(item T) (T, bool) {
	c.n.Add(1)
	return item, true
}

// Count returns the number of items seen so far.
func (c *Counter[T]) Count() int64 { return c.n.Load() }

// Direct dispatches integer categories to the branch of the same index.
// Negative categories are passed through so the stage reports them as
// dispatch index errors.
func Direct() Dispatcher[int] {
	return func(c int) (int, bool) { return c, true }
}

// MapDispatcher routes each category to the branch stored in routes.
// Categories missing from routes are dropped.
func MapDispatcher[C comparable](routes map[C]int) Dispatcher[C] {
	table := make(map[C]int, len(routes))
	for k, v := range routes {
		table[k] = v
	}
	return func(c C) (int, bool) {
		i, ok := table[c]
		return i, ok
	}
}
