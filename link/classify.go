package link

import (
	"context"

	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/logger"
	"github.com/kbukum/packetflow/observability"
)

// ClassifyBuilder builds a link that routes each item, unmodified, to at most
// one of N egress streams.
type ClassifyBuilder[T, C any] struct {
	base
	ingressor    *PacketStream[T]
	classifier   element.Classifier[T, C]
	dispatcher   element.Dispatcher[C]
	numEgressors int

	ingSet, classifierSet, dispatcherSet, numSet bool
}

// NewClassify creates an empty ClassifyBuilder.
func NewClassify[T, C any]() *ClassifyBuilder[T, C] {
	return &ClassifyBuilder[T, C]{base: newBase(KindClassify)}
}

// Ingressor sets the input stream.
func (b *ClassifyBuilder[T, C]) Ingressor(s *PacketStream[T]) *ClassifyBuilder[T, C] {
	if b.v.Once(SlotIngressor, b.ingSet) {
		b.ingressor, b.ingSet = s, true
	}
	return b
}

// Classifier sets the element that labels each item.
func (b *ClassifyBuilder[T, C]) Classifier(c element.Classifier[T, C]) *ClassifyBuilder[T, C] {
	if b.v.Once(SlotClassifier, b.classifierSet) {
		b.classifier, b.classifierSet = c, true
	}
	return b
}

// Dispatcher sets the category to branch mapping.
func (b *ClassifyBuilder[T, C]) Dispatcher(d element.Dispatcher[C]) *ClassifyBuilder[T, C] {
	if b.v.Once(SlotDispatcher, b.dispatcherSet) {
		b.dispatcher, b.dispatcherSet = d, true
	}
	return b
}

// NumEgressors sets the number of output branches.
func (b *ClassifyBuilder[T, C]) NumEgressors(n int) *ClassifyBuilder[T, C] {
	if b.v.Once(SlotNumEgressors, b.numSet) {
		b.numEgressors, b.numSet = n, true
	}
	return b
}

// QueueCapacity sets the capacity of each egress channel. Defaults to 10.
func (b *ClassifyBuilder[T, C]) QueueCapacity(n int) *ClassifyBuilder[T, C] {
	b.setCapacity(n)
	return b
}

// Name sets the stage name used in logs, metrics and errors.
func (b *ClassifyBuilder[T, C]) Name(name string) *ClassifyBuilder[T, C] {
	b.setName(name)
	return b
}

// Observer sets the stage observer.
func (b *ClassifyBuilder[T, C]) Observer(o observability.Observer) *ClassifyBuilder[T, C] {
	b.setObserver(o)
	return b
}

// Build validates every slot and returns one runnable plus NumEgressors streams.
func (b *ClassifyBuilder[T, C]) Build() (Link[T], error) {
	if err := b.begin(); err != nil {
		return Link[T]{}, err
	}

	b.v.Required(SlotIngressor, b.ingressor != nil).
		Required(SlotClassifier, b.classifier != nil).
		Required(SlotDispatcher, b.dispatcher != nil).
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

	c := &classifyTask[T, C]{
		stage:      st,
		in:         ins[0],
		outs:       outs,
		classifier: b.classifier,
		dispatcher: b.dispatcher,
	}
	return Link[T]{
		Runnables: []*Runnable{NewRunnable(st.name, c.run)},
		Egressors: egressors,
	}, nil
}

type classifyTask[T, C any] struct {
	stage
	in         <-chan T
	outs       []chan T
	classifier element.Classifier[T, C]
	dispatcher element.Dispatcher[C]
}

func (c *classifyTask[T, C]) run(ctx context.Context) (err error) {
	c.started(ctx)
	defer func() {
		closeAll(c.outs)
		c.finished(ctx, err)
	}()

	n := len(c.outs)
	for {
		item, ok, err := recv(ctx, c.in)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c.obs.ItemReceived(ctx, c.name)

		idx, routed := c.dispatcher(c.classifier.Classify(item))
		if !routed {
			c.obs.ItemDropped(ctx, c.name)
			continue
		}
		if idx < 0 || idx >= n {
			appErr := errors.DispatchIndex(c.name, idx, n)
			c.log.Error("dispatcher selected a missing branch", logger.Fields(
				logger.FieldStage, c.name,
				logger.FieldBranch, idx,
				logger.FieldEgressors, n,
			))
			return appErr
		}
		if err := send(ctx, c.outs[idx], item); err != nil {
			return err
		}
		c.obs.ItemEmitted(ctx, c.name, idx)
	}
}
