package link

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/packetflow/config"
	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/logger"
	"github.com/kbukum/packetflow/observability"
	"github.com/kbukum/packetflow/validation"
)

// Link kinds.
const (
	KindClassify = "classify"
	KindJoin     = "join"
	KindProcess  = "process"
	KindClone    = "clone"
)

// Slot names reported in configuration violations.
const (
	SlotIngressor     = "ingressor"
	SlotIngressors    = "ingressors"
	SlotClassifier    = "classifier"
	SlotDispatcher    = "dispatcher"
	SlotProcessor     = "processor"
	SlotNumEgressors  = "num_egressors"
	SlotQueueCapacity = "queue_capacity"
	SlotName          = "name"
	SlotObserver      = "observer"
)

// MaxEgressors bounds NumEgressors and the number of join lines.
const MaxEgressors = 1000

var stageSeq atomic.Int64

// base holds the optional slots every builder shares and the violations
// recorded by setters.
type base struct {
	kind string
	v    *validation.Validator

	name        string
	nameSet     bool
	capacity    int
	capacitySet bool
	observer    observability.Observer
	observerSet bool

	built bool
}

func newBase(kind string) base {
	return base{kind: kind, v: validation.New(kind)}
}

func (b *base) setName(name string) {
	if b.v.Once(SlotName, b.nameSet) {
		b.name, b.nameSet = name, true
		b.v.NotEmpty(SlotName, name)
	}
}

func (b *base) setCapacity(n int) {
	if b.v.Once(SlotQueueCapacity, b.capacitySet) {
		b.capacity, b.capacitySet = n, true
	}
}

func (b *base) setObserver(o observability.Observer) {
	if b.v.Once(SlotObserver, b.observerSet) {
		b.observer, b.observerSet = o, true
	}
}

// begin marks the builder consumed. Every Build call consumes the builder,
// including one that fails validation.
func (b *base) begin() *errors.AppError {
	if b.built {
		return errors.BuilderConsumed(b.kind)
	}
	b.built = true
	return nil
}

func (b *base) checkCapacity(slot string, value int, set bool) {
	if set {
		b.v.Range(slot, value, config.MinQueueCapacity, config.MaxQueueCapacity)
	}
}

func (b *base) queueCapacity() int {
	if b.capacitySet {
		return b.capacity
	}
	return config.DefaultQueueCapacity
}

func (b *base) stage() stage {
	name := b.name
	if !b.nameSet {
		name = fmt.Sprintf("%s-%d", b.kind, stageSeq.Add(1))
	}
	obs := b.observer
	if obs == nil {
		obs = observability.Nop{}
	}
	return stage{
		name: name,
		kind: b.kind,
		obs:  obs,
		log:  logger.Get("link"),
	}
}

// claimCheck records a violation when an ingress stream already has a consumer.
func claimCheck[T any](v *validation.Validator, slot string, s *PacketStream[T]) {
	if s != nil && s.Claimed() {
		v.Add(slot, errors.ReasonStreamConsumed, fmt.Sprintf("%s stream from %s already has a consumer", slot, s.Origin()))
	}
}

// claimAll takes ownership of streams once validation has passed.
func claimAll[T any](kind, slot string, streams ...*PacketStream[T]) ([]<-chan T, error) {
	chs := make([]<-chan T, len(streams))
	for i, s := range streams {
		ch, err := s.Take()
		if err != nil {
			return nil, errors.StreamConsumed(kind, slot)
		}
		chs[i] = ch
	}
	return chs, nil
}

// stage carries what a running task needs for logging and observation.
type stage struct {
	name string
	kind string
	obs  observability.Observer
	log  *logger.Logger
}

func (s stage) started(ctx context.Context) {
	s.log.Debug("stage started", logger.StageFields(s.name, s.kind))
	s.obs.StageStarted(ctx, s.name, s.kind)
}

func (s stage) finished(ctx context.Context, err error) {
	fields := logger.StageFields(s.name, s.kind)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		s.log.Debug("stage stopped", fields)
	} else {
		s.log.Debug("stage finished", fields)
	}
	s.obs.StageFinished(ctx, s.name, s.kind, err)
}

func (s stage) egress(i int) string {
	return fmt.Sprintf("%s[%d]", s.name, i)
}
