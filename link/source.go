package link

import (
	"context"
	"sync"
)

// Generate returns a producer runnable and the stream it feeds. next is called
// until it reports false or an error; the stream closes when the runnable returns.
func Generate[T any](name string, capacity int, next func(ctx context.Context) (T, bool, error)) (*Runnable, *PacketStream[T]) {
	if capacity <= 0 {
		capacity = 1
	}
	ch := make(chan T, capacity)
	run := func(ctx context.Context) error {
		defer close(ch)
		for {
			item, ok, err := next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := send(ctx, ch, item); err != nil {
				return err
			}
		}
	}
	return NewRunnable(name, run), newStream[T](ch, name)
}

// FromSlice returns a producer runnable that emits items in order.
func FromSlice[T any](name string, items []T, capacity int) (*Runnable, *PacketStream[T]) {
	i := 0
	return Generate(name, capacity, func(context.Context) (T, bool, error) {
		if i >= len(items) {
			var zero T
			return zero, false, nil
		}
		item := items[i]
		i++
		return item, true, nil
	})
}

// Drain claims s and returns a sink runnable that calls fn for every item.
func Drain[T any](name string, s *PacketStream[T], fn func(ctx context.Context, item T) error) (*Runnable, error) {
	ch, err := s.Take()
	if err != nil {
		return nil, err
	}
	return NewRunnable(name, func(ctx context.Context) error {
		for {
			item, ok, err := recv(ctx, ch)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := fn(ctx, item); err != nil {
				return err
			}
		}
	}), nil
}

// Collector accumulates the items of one stream.
type Collector[T any] struct {
	mu    sync.Mutex
	items []T
}

// Items returns a copy of the items collected so far.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of items collected so far.
func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Collect claims s and returns a sink runnable that appends every item to the
// returned Collector.
func Collect[T any](name string, s *PacketStream[T]) (*Runnable, *Collector[T], error) {
	c := &Collector[T]{}
	r, err := Drain(name, s, func(_ context.Context, item T) error {
		c.mu.Lock()
		c.items = append(c.items, item)
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return r, c, nil
}
