package link

import (
	"context"

	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/observability"
)

// CloneBuilder builds a link that replicates every item to N egress streams.
//
// A single task sends each item to branch 0, 1, ..., N-1 in turn, so a full
// queue on one branch stalls every branch. Items implementing element.Cloner
// are deep-copied for branches 1..N-1; other items are copied by assignment.
type CloneBuilder[T any] struct {
	base
	ingressor    *PacketStream[T]
	numEgressors int

	ingSet, numSet bool
}

// NewClone creates an empty CloneBuilder.
func NewClone[T any]() *CloneBuilder[T] {
	return &CloneBuilder[T]{base: newBase(KindClone)}
}

// Ingressor sets the input stream.
func (b *CloneBuilder[T]) Ingressor(s *PacketStream[T]) *CloneBuilder[T] {
	if b.v.Once(SlotIngressor, b.ingSet) {
		b.ingressor, b.ingSet = s, true
	}
	return b
}

// NumEgressors sets the number of replicas.
func (b *CloneBuilder[T]) NumEgressors(n int) *CloneBuilder[T] {
	if b.v.Once(SlotNumEgressors, b.numSet) {
		b.numEgressors, b.numSet = n, true
	}
	return b
}

// QueueCapacity sets the capacity of each egress channel. Defaults to 10.
func (b *CloneBuilder[T]) QueueCapacity(n int) *CloneBuilder[T] {
	b.setCapacity(n)
	return b
}

// Name sets the stage name.
func (b *CloneBuilder[T]) Name(name string) *CloneBuilder[T] {
	b.setName(name)
	return b
}

// Observer sets the stage observer.
func (b *CloneBuilder[T]) Observer(o observability.Observer) *CloneBuilder[T] {
	b.setObserver(o)
	return b
}

// Build validates the slots and returns one runnable and NumEgressors streams.
func (b *CloneBuilder[T]) Build() (Link[T], error) {
	if err := b.begin(); err != nil {
		return Link[T]{}, err
	}

	b.v.Required(SlotIngressor, b.ingressor != nil).
		Required(SlotNumEgressors, b.numSet)
	if b.numSet {
		b.v.Range(SlotNumEgressors, b.numEgressors, 1, MaxEgressors)
	}
	b.checkCapacity(SlotQueueCapacity, b.capacity, b.capacitySet)
	claimCheck(b.v, SlotIngressor, b.ingressor)
	if err := b.v.Validate(); err != nil {
		return Link[T]{}, err
	}

	ins, err := claimAll(b.kind, SlotIngressor, b.ingressor)
	if err != nil {
		return Link[T]{}, err
	}

	st := b.stage()
	outs := makeChannels[T](b.numEgressors, b.queueCapacity())
	egressors := make([]*PacketStream[T], len(outs))
	for i, ch := range outs {
		egressors[i] = newStream[T](ch, st.egress(i))
	}

	c := &cloneTask[T]{stage: st, in: ins[0], outs: outs}
	return Link[T]{
		Runnables: []*Runnable{NewRunnable(st.name, c.run)},
		Egressors: egressors,
	}, nil
}

type cloneTask[T any] struct {
	stage
	in   <-chan T
	outs []chan T
}

func (c *cloneTask[T]) run(ctx context.Context) (err error) {
	c.started(ctx)
	defer func() {
		closeAll(c.outs)
		c.finished(ctx, err)
	}()

	copies := make([]T, len(c.outs))
	for {
		item, ok, err := recv(ctx, c.in)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c.obs.ItemReceived(ctx, c.name)

		// Copies are taken before the original is handed to branch 0.
		copies[0] = item
		for k := 1; k < len(copies); k++ {
			copies[k] = element.Copy(item)
		}
		for k, out := range c.outs {
			if err := send(ctx, out, copies[k]); err != nil {
				return err
			}
			c.obs.ItemEmitted(ctx, c.name, k)
		}
		clear(copies)
	}
}
