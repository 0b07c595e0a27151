package link

import (
	"sync/atomic"

	"github.com/kbukum/packetflow/errors"
)

// PacketStream is an ordered, single-pass, single-consumer stream of items.
// Exactly one builder or terminal consumer may claim it.
type PacketStream[T any] struct {
	ch      <-chan T
	origin  string
	claimed atomic.Bool
}

// Stream is the type-erased view of a PacketStream used for wiring checks.
type Stream interface {
	Origin() string
	Claimed() bool
}

// NewStream wraps a receive channel owned by the caller. The producer must
// close ch when it is done.
func NewStream[T any](ch <-chan T) *PacketStream[T] {
	return &PacketStream[T]{ch: ch, origin: "external"}
}

func newStream[T any](ch <-chan T, origin string) *PacketStream[T] {
	return &PacketStream[T]{ch: ch, origin: origin}
}

// Origin names the producer of the stream, e.g. "classify-1[0]".
func (s *PacketStream[T]) Origin() string { return s.origin }

// Claimed reports whether a consumer has taken the stream.
func (s *PacketStream[T]) Claimed() bool { return s.claimed.Load() }

// Take claims the stream for a terminal consumer and returns its channel.
func (s *PacketStream[T]) Take() (<-chan T, error) {
	if !s.claimed.CompareAndSwap(false, true) {
		return nil, errors.StreamConsumed("stream", s.origin)
	}
	return s.ch, nil
}

// Unclaimed returns a ConfigurationError listing every stream nobody
// consumed. Call it after all builders of a graph have been built.
func Unclaimed(streams ...Stream) error {
	var violations []errors.Violation
	for _, s := range streams {
		if !s.Claimed() {
			violations = append(violations, errors.Violation{
				Slot:    s.Origin(),
				Reason:  errors.ReasonUnclaimedStream,
				Message: s.Origin() + " has no consumer",
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return errors.Configuration("graph", violations...)
}

// Streams converts typed streams to their type-erased view.
func Streams[T any](streams []*PacketStream[T]) []Stream {
	out := make([]Stream, len(streams))
	for i, s := range streams {
		out[i] = s
	}
	return out
}
