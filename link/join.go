package link

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/observability"
)

// JoinBuilder builds a link that merges M input streams into one.
//
// Each input line is drained by its own task into a bounded line queue, and a
// merge task serves the line queues in round-robin order: after forwarding an
// item from line i the next scan starts at line i+1, so a line that always has
// an item ready is served at least once every M forwarded items. Per-line
// order is preserved; nothing is promised across lines. The output closes once
// every line has closed and drained.
type JoinBuilder[T any] struct {
	base
	ingressors []*PacketStream[T]
	ingSet     bool
}

// NewJoin creates an empty JoinBuilder.
func NewJoin[T any]() *JoinBuilder[T] {
	return &JoinBuilder[T]{base: newBase(KindJoin)}
}

// Ingressors sets the input streams, one per line.
func (b *JoinBuilder[T]) Ingressors(streams []*PacketStream[T]) *JoinBuilder[T] {
	if b.v.Once(SlotIngressors, b.ingSet) {
		b.ingressors, b.ingSet = streams, true
	}
	return b
}

// QueueCapacity sets the capacity of each line queue and of the output. Defaults to 10.
func (b *JoinBuilder[T]) QueueCapacity(n int) *JoinBuilder[T] {
	b.setCapacity(n)
	return b
}

// Name sets the stage name.
func (b *JoinBuilder[T]) Name(name string) *JoinBuilder[T] {
	b.setName(name)
	return b
}

// Observer sets the stage observer. Events come from the merge task only.
func (b *JoinBuilder[T]) Observer(o observability.Observer) *JoinBuilder[T] {
	b.setObserver(o)
	return b
}

// Build validates the slots and returns M+1 runnables and one stream.
func (b *JoinBuilder[T]) Build() (Link[T], error) {
	if err := b.begin(); err != nil {
		return Link[T]{}, err
	}

	b.v.Required(SlotIngressors, b.ingSet && len(b.ingressors) > 0)
	if len(b.ingressors) > 0 {
		b.v.Range(SlotIngressors, len(b.ingressors), 1, MaxEgressors)
	}
	b.checkCapacity(SlotQueueCapacity, b.capacity, b.capacitySet)
	seen := make(map[*PacketStream[T]]bool, len(b.ingressors))
	for i, s := range b.ingressors {
		slot := fmt.Sprintf("%s[%d]", SlotIngressors, i)
		switch {
		case s == nil:
			b.v.Add(slot, errors.ReasonMissing, slot+" is nil")
		case seen[s]:
			b.v.Add(slot, errors.ReasonStreamConsumed, slot+" repeats an earlier stream")
		default:
			seen[s] = true
			claimCheck(b.v, slot, s)
		}
	}
	if err := b.v.Validate(); err != nil {
		return Link[T]{}, err
	}

	ins, err := claimAll(b.kind, SlotIngressors, b.ingressors...)
	if err != nil {
		return Link[T]{}, err
	}

	st := b.stage()
	capacity := b.queueCapacity()
	lines := makeChannels[T](len(ins), capacity)
	out := make(chan T, capacity)

	runnables := make([]*Runnable, 0, len(ins)+1)
	for i := range ins {
		line := &joinLine[T]{in: ins[i], out: lines[i]}
		runnables = append(runnables, NewRunnable(fmt.Sprintf("%s.line[%d]", st.name, i), line.run))
	}
	m := &joinMerge[T]{stage: st, lines: lines, out: out}
	runnables = append(runnables, NewRunnable(st.name, m.run))

	return Link[T]{
		Runnables: runnables,
		Egressors: []*PacketStream[T]{newStream[T](out, st.egress(0))},
	}, nil
}

type joinLine[T any] struct {
	in  <-chan T
	out chan T
}

func (l *joinLine[T]) run(ctx context.Context) error {
	defer close(l.out)
	for {
		item, ok, err := recv(ctx, l.in)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := send(ctx, l.out, item); err != nil {
			return err
		}
	}
}

type joinMerge[T any] struct {
	stage
	lines []chan T
	out   chan T
}

func (m *joinMerge[T]) run(ctx context.Context) (err error) {
	m.started(ctx)
	defer func() {
		close(m.out)
		m.finished(ctx, err)
	}()

	sel := newLineSelector(ctx, m.lines)
	for sel.live > 0 {
		item, line, ok, err := sel.next()
		if err != nil {
			return err
		}
		if !ok {
			sel.closeLine(line)
			continue
		}
		m.obs.ItemReceived(ctx, m.name)
		if err := send(ctx, m.out, item); err != nil {
			return err
		}
		m.obs.ItemEmitted(ctx, m.name, 0)
	}
	return nil
}

// lineSelector picks the next ready line in round-robin order, blocking on all
// open lines at once when none is ready.
type lineSelector[T any] struct {
	ctx   context.Context
	lines []chan T
	open  []bool
	live  int
	start int

	cases   []reflect.SelectCase
	caseIdx []int
}

func newLineSelector[T any](ctx context.Context, lines []chan T) *lineSelector[T] {
	s := &lineSelector[T]{
		ctx:   ctx,
		lines: lines,
		open:  make([]bool, len(lines)),
		live:  len(lines),
	}
	for i := range s.open {
		s.open[i] = true
	}
	s.rebuildCases()
	return s
}

// next returns the next item and its line. ok is false when the line closed.
func (s *lineSelector[T]) next() (item T, line int, ok bool, err error) {
	n := len(s.lines)
	for k := 0; k < n; k++ {
		i := (s.start + k) % n
		if !s.open[i] {
			continue
		}
		select {
		case item, ok = <-s.lines[i]:
			s.start = (i + 1) % n
			return item, i, ok, nil
		default:
		}
	}

	chosen, recvd, recvOK := reflect.Select(s.cases)
	if chosen == len(s.cases)-1 {
		return item, -1, false, s.ctx.Err()
	}
	line = s.caseIdx[chosen]
	s.start = (line + 1) % n
	if !recvOK {
		return item, line, false, nil
	}
	item, _ = recvd.Interface().(T)
	return item, line, true, nil
}

func (s *lineSelector[T]) closeLine(i int) {
	if !s.open[i] {
		return
	}
	s.open[i] = false
	s.live--
	s.rebuildCases()
}

// rebuildCases lists one receive case per open line followed by ctx.Done.
func (s *lineSelector[T]) rebuildCases() {
	s.cases = s.cases[:0]
	s.caseIdx = s.caseIdx[:0]
	for i, ch := range s.lines {
		if !s.open[i] {
			continue
		}
		s.cases = append(s.cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
		s.caseIdx = append(s.caseIdx, i)
	}
	s.cases = append(s.cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(s.ctx.Done())})
}
