package composite

import (
	"context"
	"slices"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/observability"
)

func sources(t *testing.T, m, k int) ([]*link.Runnable, []*link.PacketStream[int]) {
	t.Helper()
	var runnables []*link.Runnable
	var streams []*link.PacketStream[int]
	for line := 0; line < m; line++ {
		items := make([]int, k)
		for i := range items {
			items[i] = line*1000 + i
		}
		r, s := link.FromSlice("src", items, 4)
		runnables = append(runnables, r)
		streams = append(streams, s)
	}
	return runnables, streams
}

func run(t *testing.T, runnables []*link.Runnable) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runnables {
		r := r
		g.Go(func() error { return r.Run(gctx) })
	}
	return g.Wait()
}

func TestJoinTransformClone_IdentityTwoByTwo(t *testing.T) {
	const k = 13
	srcs, ins := sources(t, 2, k)

	l, err := NewJoinTransformClone[int, int]().
		Ingressors(ins).
		Element(element.Identity[int]()).
		NumEgressors(2).
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	// two join lines + merge, process, clone
	if len(l.Runnables) != 5 {
		t.Errorf("expected 5 runnables, got %d", len(l.Runnables))
	}
	if len(l.Egressors) != 2 {
		t.Fatalf("expected 2 egressors, got %d", len(l.Egressors))
	}

	runnables := append([]*link.Runnable{}, srcs...)
	runnables = append(runnables, l.Runnables...)
	var cols []*link.Collector[int]
	for _, e := range l.Egressors {
		r, c, err := link.Collect("sink", e)
		if err != nil {
			t.Fatal(err)
		}
		runnables = append(runnables, r)
		cols = append(cols, c)
	}
	if err := run(t, runnables); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	a, b := cols[0].Items(), cols[1].Items()
	if len(a) != 2*k || len(b) != 2*k {
		t.Fatalf("expected %d items per egress, got %d and %d", 2*k, len(a), len(b))
	}
	if !slices.Equal(a, b) {
		t.Error("expected identical sequences on both egressors")
	}
}

func TestJoinTransformClone_AppliesElement(t *testing.T) {
	srcs, ins := sources(t, 3, 5)
	stats := observability.NewStats()

	l, err := NewJoinTransformClone[int, int]().
		Ingressors(ins).
		Element(element.Filter(func(n int) bool { return n%2 == 0 })).
		NumEgressors(1).
		JoinQueueCapacity(1).
		CloneQueueCapacity(1).
		Name("evens").
		Observer(stats).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	r, c, err := link.Collect("sink", l.Egressors[0])
	if err != nil {
		t.Fatal(err)
	}
	if err := run(t, append(append(srcs, l.Runnables...), r)); err != nil {
		t.Fatal(err)
	}

	// 0,2,4 from each of three lines
	if c.Len() != 9 {
		t.Errorf("expected 9 items, got %v", c.Items())
	}
	snap, ok := stats.Stage("evens.process")
	if !ok || snap.Dropped != 6 {
		t.Errorf("unexpected process stats %+v", snap)
	}
	if _, ok := stats.Stage("evens.join"); !ok {
		t.Error("expected join stage stats")
	}
}

func TestJoinTransformClone_BuildErrors(t *testing.T) {
	one := func() []*link.PacketStream[int] {
		_, s := link.FromSlice("s", []int{1}, 1)
		return []*link.PacketStream[int]{s}
	}
	two := func() []*link.PacketStream[int] {
		_, a := link.FromSlice("a", []int{1}, 1)
		_, b := link.FromSlice("b", []int{1}, 1)
		return []*link.PacketStream[int]{a, b}
	}

	tests := []struct {
		name   string
		build  func() error
		slot   string
		reason string
	}{
		{"missing ingressors", func() error {
			_, err := NewJoinTransformClone[int, int]().Element(element.Identity[int]()).NumEgressors(1).Build()
			return err
		}, link.SlotIngressors, errors.ReasonMissing},
		{"single ingressor", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(one()).Element(element.Identity[int]()).NumEgressors(1).Build()
			return err
		}, link.SlotIngressors, errors.ReasonOutOfRange},
		{"missing element", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).NumEgressors(1).Build()
			return err
		}, SlotElement, errors.ReasonMissing},
		{"missing egressors", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).Element(element.Identity[int]()).Build()
			return err
		}, link.SlotNumEgressors, errors.ReasonMissing},
		{"zero egressors", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).Element(element.Identity[int]()).NumEgressors(0).Build()
			return err
		}, link.SlotNumEgressors, errors.ReasonOutOfRange},
		{"join capacity", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).Element(element.Identity[int]()).NumEgressors(1).JoinQueueCapacity(0).Build()
			return err
		}, SlotJoinQueueCapacity, errors.ReasonOutOfRange},
		{"clone capacity", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).Element(element.Identity[int]()).NumEgressors(1).CloneQueueCapacity(1001).Build()
			return err
		}, SlotCloneQueueCapacity, errors.ReasonOutOfRange},
		{"element twice", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).Element(element.Identity[int]()).Element(element.Identity[int]()).NumEgressors(1).Build()
			return err
		}, SlotElement, errors.ReasonSlotAlreadySet},
		{"nil element then set", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).Element(nil).Element(element.Identity[int]()).NumEgressors(1).Build()
			return err
		}, SlotElement, errors.ReasonSlotAlreadySet},
		{"nil observer then set", func() error {
			_, err := NewJoinTransformClone[int, int]().Ingressors(two()).Element(element.Identity[int]()).NumEgressors(1).Observer(nil).Observer(observability.Nop{}).Build()
			return err
		}, link.SlotObserver, errors.ReasonSlotAlreadySet},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			if !errors.HasViolation(err, tt.slot, tt.reason) {
				t.Errorf("expected %s/%s, got %v", tt.slot, tt.reason, err)
			}
		})
	}
}

func TestJoinTransformClone_DistinctMissingViolations(t *testing.T) {
	_, err := NewJoinTransformClone[int, int]().Build()
	for _, slot := range []string{link.SlotIngressors, SlotElement, link.SlotNumEgressors} {
		if !errors.HasViolation(err, slot, errors.ReasonMissing) {
			t.Errorf("expected missing %s in %v", slot, err)
		}
	}
}

func TestJoinTransformClone_ClaimedIngressor(t *testing.T) {
	_, a := link.FromSlice("a", []int{1}, 1)
	_, b := link.FromSlice("b", []int{1}, 1)
	if _, err := a.Take(); err != nil {
		t.Fatal(err)
	}
	_, err := NewJoinTransformClone[int, int]().
		Ingressors([]*link.PacketStream[int]{a, b}).
		Element(element.Identity[int]()).
		NumEgressors(1).
		Build()
	if !errors.HasViolation(err, "ingressors[0]", errors.ReasonStreamConsumed) {
		t.Errorf("expected claimed ingress violation, got %v", err)
	}
	if b.Claimed() {
		t.Error("b must stay unclaimed when the build fails")
	}
}

func TestJoinTransformClone_Consumed(t *testing.T) {
	b := NewJoinTransformClone[int, int]()
	_, _ = b.Build()
	_, err := b.Build()
	if !errors.HasViolation(err, "build", errors.ReasonBuilderConsumed) {
		t.Errorf("expected builder_consumed, got %v", err)
	}
}
