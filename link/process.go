package link

import (
	"context"

	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/observability"
)

// ProcessBuilder builds a link that applies a Processor to every item and
// forwards the results it keeps, in order.
type ProcessBuilder[I, O any] struct {
	base
	ingressor *PacketStream[I]
	processor element.Processor[I, O]

	ingSet, processorSet bool
}

// NewProcess creates an empty ProcessBuilder.
func NewProcess[I, O any]() *ProcessBuilder[I, O] {
	return &ProcessBuilder[I, O]{base: newBase(KindProcess)}
}

// Ingressor sets the input stream.
func (b *ProcessBuilder[I, O]) Ingressor(s *PacketStream[I]) *ProcessBuilder[I, O] {
	if b.v.Once(SlotIngressor, b.ingSet) {
		b.ingressor, b.ingSet = s, true
	}
	return b
}

// Processor sets the element applied to each item.
func (b *ProcessBuilder[I, O]) Processor(p element.Processor[I, O]) *ProcessBuilder[I, O] {
	if b.v.Once(SlotProcessor, b.processorSet) {
		b.processor, b.processorSet = p, true
	}
	return b
}

// QueueCapacity sets the capacity of the egress channel. Defaults to 10.
func (b *ProcessBuilder[I, O]) QueueCapacity(n int) *ProcessBuilder[I, O] {
	b.setCapacity(n)
	return b
}

// Name sets the stage name.
func (b *ProcessBuilder[I, O]) Name(name string) *ProcessBuilder[I, O] {
	b.setName(name)
	return b
}

// Observer sets the stage observer.
func (b *ProcessBuilder[I, O]) Observer(o observability.Observer) *ProcessBuilder[I, O] {
	b.setObserver(o)
	return b
}

// Build validates the slots and returns one runnable and one stream.
func (b *ProcessBuilder[I, O]) Build() (Link[O], error) {
	if err := b.begin(); err != nil {
		return Link[O]{}, err
	}

	b.v.Required(SlotIngressor, b.ingressor != nil).
		Required(SlotProcessor, b.processor != nil)
	b.checkCapacity(SlotQueueCapacity, b.capacity, b.capacitySet)
	claimCheck(b.v, SlotIngressor, b.ingressor)
	if err := b.v.Validate(); err != nil {
		return Link[O]{}, err
	}

	ins, err := claimAll(b.kind, SlotIngressor, b.ingressor)
	if err != nil {
		return Link[O]{}, err
	}

	st := b.stage()
	out := make(chan O, b.queueCapacity())
	p := &processTask[I, O]{stage: st, in: ins[0], out: out, processor: b.processor}
	return Link[O]{
		Runnables: []*Runnable{NewRunnable(st.name, p.run)},
		Egressors: []*PacketStream[O]{newStream[O](out, st.egress(0))},
	}, nil
}

type processTask[I, O any] struct {
	stage
	in        <-chan I
	out       chan O
	processor element.Processor[I, O]
}

func (p *processTask[I, O]) run(ctx context.Context) (err error) {
	p.started(ctx)
	defer func() {
		close(p.out)
		p.finished(ctx, err)
	}()

	for {
		item, ok, err := recv(ctx, p.in)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		p.obs.ItemReceived(ctx, p.name)

		result, keep := p.processor.Process(item)
		if !keep {
			p.obs.ItemDropped(ctx, p.name)
			continue
		}
		if err := send(ctx, p.out, result); err != nil {
			return err
		}
		p.obs.ItemEmitted(ctx, p.name, 0)
	}
}
