package composite

import (
	"fmt"

	"github.com/kbukum/packetflow/config"
	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/logger"
	"github.com/kbukum/packetflow/observability"
	"github.com/kbukum/packetflow/validation"
)

// Kind is the component name reported in configuration errors.
const Kind = "join_transform_clone"

// Slot names specific to the composite.
const (
	SlotElement            = "element"
	SlotJoinQueueCapacity  = "join_queue_capacity"
	SlotCloneQueueCapacity = "clone_queue_capacity"
)

// Ingress bounds: a join of fewer than two streams is a plain process link.
const (
	MinIngressors = 2
	MaxIngressors = 1000
)

// JoinTransformCloneBuilder merges M >= 2 streams, applies one element to the
// merged stream and replicates the result to N egress streams.
type JoinTransformCloneBuilder[I, O any] struct {
	v *validation.Validator

	ingressors   []*link.PacketStream[I]
	ingSet       bool
	element      element.Processor[I, O]
	elementSet   bool
	numEgressors int
	numSet       bool
	joinCap      int
	joinCapSet   bool
	cloneCap     int
	cloneCapSet  bool
	name         string
	nameSet      bool
	observer     observability.Observer
	observerSet  bool

	built bool
}

// NewJoinTransformClone creates an empty builder.
func NewJoinTransformClone[I, O any]() *JoinTransformCloneBuilder[I, O] {
	return &JoinTransformCloneBuilder[I, O]{v: validation.New(Kind)}
}

func (b *JoinTransformCloneBuilder[I, O]) Ingressors(streams []*link.PacketStream[I]) *JoinTransformCloneBuilder[I, O] {
	if b.v.Once(link.SlotIngressors, b.ingSet) {
		b.ingressors, b.ingSet = streams, true
	}
	return b
}

func (b *JoinTransformCloneBuilder[I, O]) Element(p element.Processor[I, O]) *JoinTransformCloneBuilder[I, O] {
	if b.v.Once(SlotElement, b.elementSet) {
		b.element, b.elementSet = p, true
	}
	return b
}

func (b *JoinTransformCloneBuilder[I, O]) NumEgressors(n int) *JoinTransformCloneBuilder[I, O] {
	if b.v.Once(link.SlotNumEgressors, b.numSet) {
		b.numEgressors, b.numSet = n, true
	}
	return b
}

func (b *JoinTransformCloneBuilder[I, O]) JoinQueueCapacity(n int) *JoinTransformCloneBuilder[I, O] {
	if b.v.Once(SlotJoinQueueCapacity, b.joinCapSet) {
		b.joinCap, b.joinCapSet = n, true
	}
	return b
}

func (b *JoinTransformCloneBuilder[I, O]) CloneQueueCapacity(n int) *JoinTransformCloneBuilder[I, O] {
	if b.v.Once(SlotCloneQueueCapacity, b.cloneCapSet) {
		b.cloneCap, b.cloneCapSet = n, true
	}
	return b
}

// Name prefixes the names of the three inner stages.
func (b *JoinTransformCloneBuilder[I, O]) Name(name string) *JoinTransformCloneBuilder[I, O] {
	if b.v.Once(link.SlotName, b.nameSet) {
		b.name, b.nameSet = name, true
		b.v.NotEmpty(link.SlotName, name)
	}
	return b
}

// Observer is passed to every inner stage.
func (b *JoinTransformCloneBuilder[I, O]) Observer(o observability.Observer) *JoinTransformCloneBuilder[I, O] {
	if b.v.Once(link.SlotObserver, b.observerSet) {
		b.observer, b.observerSet = o, true
	}
	return b
}

// Build validates every slot, then builds join, process and clone in that
// order. The runnables of all three are returned together with the clone's
// egress streams.
func (b *JoinTransformCloneBuilder[I, O]) Build() (link.Link[O], error) {
	if b.built {
		return link.Link[O]{}, errors.BuilderConsumed(Kind)
	}
	b.built = true

	b.v.Required(link.SlotIngressors, b.ingSet && len(b.ingressors) > 0)
	if len(b.ingressors) > 0 {
		b.v.Range(link.SlotIngressors, len(b.ingressors), MinIngressors, MaxIngressors)
	}
	b.v.Required(SlotElement, b.element != nil).
		Required(link.SlotNumEgressors, b.numSet)
	if b.numSet {
		b.v.Range(link.SlotNumEgressors, b.numEgressors, 1, link.MaxEgressors)
	}
	if b.joinCapSet {
		b.v.Range(SlotJoinQueueCapacity, b.joinCap, config.MinQueueCapacity, config.MaxQueueCapacity)
	}
	if b.cloneCapSet {
		b.v.Range(SlotCloneQueueCapacity, b.cloneCap, config.MinQueueCapacity, config.MaxQueueCapacity)
	}
	if err := b.v.Validate(); err != nil {
		return link.Link[O]{}, err
	}

	name := b.name
	if !b.nameSet {
		name = Kind
	}
	joinCap, cloneCap := config.DefaultQueueCapacity, config.DefaultQueueCapacity
	if b.joinCapSet {
		joinCap = b.joinCap
	}
	if b.cloneCapSet {
		cloneCap = b.cloneCap
	}

	join := link.NewJoin[I]().
		Ingressors(b.ingressors).
		QueueCapacity(joinCap).
		Name(name + ".join")
	if b.observer != nil {
		join.Observer(b.observer)
	}
	joined, err := join.Build()
	if err != nil {
		return link.Link[O]{}, fmt.Errorf("building join: %w", err)
	}

	process := link.NewProcess[I, O]().
		Ingressor(joined.Egressors[0]).
		Processor(b.element).
		QueueCapacity(joinCap).
		Name(name + ".process")
	if b.observer != nil {
		process.Observer(b.observer)
	}
	processed, err := process.Build()
	if err != nil {
		return link.Link[O]{}, fmt.Errorf("building process: %w", err)
	}

	clone := link.NewClone[O]().
		Ingressor(processed.Egressors[0]).
		NumEgressors(b.numEgressors).
		QueueCapacity(cloneCap).
		Name(name + ".clone")
	if b.observer != nil {
		clone.Observer(b.observer)
	}
	cloned, err := clone.Build()
	if err != nil {
		return link.Link[O]{}, fmt.Errorf("building clone: %w", err)
	}

	runnables := make([]*link.Runnable, 0, len(joined.Runnables)+len(processed.Runnables)+len(cloned.Runnables))
	runnables = append(runnables, cloned.Runnables...)
	runnables = append(runnables, joined.Runnables...)
	runnables = append(runnables, processed.Runnables...)

	logger.Get("composite").Debug("composite built", logger.Fields(
		logger.FieldStage, name,
		"ingressors", len(b.ingressors),
		logger.FieldEgressors, b.numEgressors,
	))

	return link.Link[O]{
		Runnables: runnables,
		Egressors: cloned.Egressors,
	}, nil
}
