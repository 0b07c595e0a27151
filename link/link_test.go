package link

import (
	"context"
	stderrors "errors"
	"slices"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/observability"
)

func runAll(t *testing.T, runnables ...*Runnable) error {
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

func collectAll[T any](t *testing.T, streams []*PacketStream[T]) ([]*Runnable, []*Collector[T]) {
	t.Helper()
	var runnables []*Runnable
	var collectors []*Collector[T]
	for i, s := range streams {
		r, c, err := Collect("sink", s)
		if err != nil {
			t.Fatalf("collecting egress %d: %v", i, err)
		}
		runnables = append(runnables, r)
		collectors = append(collectors, c)
	}
	return runnables, collectors
}

func closedStream[T any](items ...T) *PacketStream[T] {
	ch := make(chan T, len(items))
	for _, it := range items {
		ch <- it
	}
	close(ch)
	return NewStream[T](ch)
}

func byLetter() element.Classifier[string, string] {
	return element.ClassifierFunc[string, string](func(s string) string { return s[:1] })
}

func TestClassify_RoutesByCategory(t *testing.T) {
	src, in := FromSlice("src", []string{"A1", "B1", "C1", "A2"}, 4)
	stats := observability.NewStats()

	l, err := NewClassify[string, string]().
		Ingressor(in).
		Classifier(byLetter()).
		Dispatcher(element.MapDispatcher(map[string]int{"A": 0, "B": 1})).
		NumEgressors(2).
		Name("letters").
		Observer(stats).
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if len(l.Runnables) != 1 || len(l.Egressors) != 2 {
		t.Fatalf("expected 1 runnable and 2 egressors, got %d and %d", len(l.Runnables), len(l.Egressors))
	}
	if !in.Claimed() {
		t.Error("expected ingress to be claimed after build")
	}

	sinks, out := collectAll(t, l.Egressors)
	if err := runAll(t, append(append([]*Runnable{src}, l.Runnables...), sinks...)...); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if got := out[0].Items(); !slices.Equal(got, []string{"A1", "A2"}) {
		t.Errorf("branch 0 = %v", got)
	}
	if got := out[1].Items(); !slices.Equal(got, []string{"B1"}) {
		t.Errorf("branch 1 = %v", got)
	}

	snap, _ := stats.Stage("letters")
	if snap.Received != 4 || snap.Emitted != 3 || snap.Dropped != 1 {
		t.Errorf("expected received=emitted+dropped (4=3+1), got %+v", snap)
	}
}

func TestClassify_Conservation(t *testing.T) {
	items := make([]int, 200)
	for i := range items {
		items[i] = i
	}
	src, in := FromSlice("src", items, 8)
	stats := observability.NewStats()

	l, err := NewClassify[int, int]().
		Ingressor(in).
		Classifier(element.ClassifierFunc[int, int](func(n int) int { return n % 5 })).
		Dispatcher(func(c int) (int, bool) { return c, c < 3 }).
		NumEgressors(3).
		QueueCapacity(1).
		Name("mod").
		Observer(stats).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, l.Egressors)
	if err := runAll(t, append(append([]*Runnable{src}, l.Runnables...), sinks...)...); err != nil {
		t.Fatal(err)
	}

	total := 0
	for branch, c := range out {
		got := c.Items()
		total += len(got)
		for i, n := range got {
			if n%5 != branch {
				t.Errorf("item %d on branch %d", n, branch)
			}
			if i > 0 && got[i-1] >= n {
				t.Errorf("branch %d out of order at %d", branch, i)
			}
		}
	}
	snap, _ := stats.Stage("mod")
	if int64(total)+snap.Dropped != int64(len(items)) {
		t.Errorf("emitted %d + dropped %d != %d", total, snap.Dropped, len(items))
	}
}

type point struct{ X, Y int }

func TestClassify_ItemsUnmodified(t *testing.T) {
	src, in := FromSlice("src", []point{{1, 2}, {3, 4}}, 2)
	l, err := NewClassify[point, bool]().
		Ingressor(in).
		Classifier(element.ClassifierFunc[point, bool](func(p point) bool { return p.X > 2 })).
		Dispatcher(func(big bool) (int, bool) {
			if big {
				return 1, true
			}
			return 0, true
		}).
		NumEgressors(2).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, l.Egressors)
	if err := runAll(t, append(append([]*Runnable{src}, l.Runnables...), sinks...)...); err != nil {
		t.Fatal(err)
	}
	if got := out[0].Items(); len(got) != 1 || got[0] != (point{1, 2}) {
		t.Errorf("branch 0 = %v", got)
	}
	if got := out[1].Items(); len(got) != 1 || got[0] != (point{3, 4}) {
		t.Errorf("branch 1 = %v", got)
	}
}

func TestClassify_DispatchIndexError(t *testing.T) {
	tests := []struct {
		name  string
		index int
	}{
		{"past the end", 2},
		{"negative", -1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			in := closedStream(1, 2, 3)
			l, err := NewClassify[int, int]().
				Ingressor(in).
				Classifier(element.ClassifierFunc[int, int](func(n int) int { return n })).
				Dispatcher(func(n int) (int, bool) {
					if n == 2 {
						return tt.index, true
					}
					return 0, true
				}).
				NumEgressors(2).
				Name("bad-dispatch").
				Build()
			if err != nil {
				t.Fatal(err)
			}
			out0, _ := l.Egressors[0].Take()
			out1, _ := l.Egressors[1].Take()
			err = l.Runnables[0].Run(context.Background())
			if !errors.IsDispatchIndex(err) {
				t.Fatalf("expected dispatch index error, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			if appErr.Details["index"] != tt.index || appErr.Details["stage"] != "bad-dispatch" {
				t.Errorf("unexpected details %v", appErr.Details)
			}
			var got []int
			for n := range out0 {
				got = append(got, n)
			}
			if !slices.Equal(got, []int{1}) {
				t.Errorf("expected only the item before the failure, got %v", got)
			}
			if _, ok := <-out1; ok {
				t.Error("expected branch 1 to be closed and empty")
			}
		})
	}
}

func TestClassify_BuildErrors(t *testing.T) {
	cls := byLetter()
	disp := element.MapDispatcher(map[string]int{"A": 0})

	tests := []struct {
		name   string
		build  func() error
		slot   string
		reason string
	}{
		{"missing ingressor", func() error {
			_, err := NewClassify[string, string]().Classifier(cls).Dispatcher(disp).NumEgressors(1).Build()
			return err
		}, SlotIngressor, errors.ReasonMissing},
		{"missing classifier", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Dispatcher(disp).NumEgressors(1).Build()
			return err
		}, SlotClassifier, errors.ReasonMissing},
		{"missing dispatcher", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(cls).NumEgressors(1).Build()
			return err
		}, SlotDispatcher, errors.ReasonMissing},
		{"missing num egressors", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(cls).Dispatcher(disp).Build()
			return err
		}, SlotNumEgressors, errors.ReasonMissing},
		{"zero egressors", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(cls).Dispatcher(disp).NumEgressors(0).Build()
			return err
		}, SlotNumEgressors, errors.ReasonOutOfRange},
		{"too many egressors", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(cls).Dispatcher(disp).NumEgressors(1001).Build()
			return err
		}, SlotNumEgressors, errors.ReasonOutOfRange},
		{"capacity zero", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(cls).Dispatcher(disp).NumEgressors(1).QueueCapacity(0).Build()
			return err
		}, SlotQueueCapacity, errors.ReasonOutOfRange},
		{"classifier set twice", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(cls).Classifier(cls).Dispatcher(disp).NumEgressors(1).Build()
			return err
		}, SlotClassifier, errors.ReasonSlotAlreadySet},
		{"nil classifier then set", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(nil).Classifier(cls).Dispatcher(disp).NumEgressors(1).Build()
			return err
		}, SlotClassifier, errors.ReasonSlotAlreadySet},
		{"nil dispatcher then set", func() error {
			_, err := NewClassify[string, string]().Ingressor(closedStream[string]()).Classifier(cls).Dispatcher(nil).Dispatcher(disp).NumEgressors(1).Build()
			return err
		}, SlotDispatcher, errors.ReasonSlotAlreadySet},
		{"nil ingressor then set", func() error {
			_, err := NewClassify[string, string]().Ingressor(nil).Ingressor(closedStream[string]()).Classifier(cls).Dispatcher(disp).NumEgressors(1).Build()
			return err
		}, SlotIngressor, errors.ReasonSlotAlreadySet},
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

func TestClassify_CollectsEveryViolation(t *testing.T) {
	_, err := NewClassify[string, string]().NumEgressors(0).Build()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if len(appErr.Violations()) != 4 {
		t.Errorf("expected 4 violations, got %v", appErr.Violations())
	}
}

func TestBuilder_FailedBuildDoesNotClaim(t *testing.T) {
	in := closedStream[string]()
	_, err := NewClassify[string, string]().Ingressor(in).NumEgressors(1).Build()
	if err == nil {
		t.Fatal("expected error")
	}
	if in.Claimed() {
		t.Error("a failed build must leave its ingress unclaimed")
	}
}

func TestBuilder_Consumed(t *testing.T) {
	b := NewProcess[int, int]().Ingressor(closedStream[int]()).Processor(element.Identity[int]())
	if _, err := b.Build(); err != nil {
		t.Fatal(err)
	}
	_, err := b.Build()
	if !errors.HasViolation(err, "build", errors.ReasonBuilderConsumed) {
		t.Errorf("expected builder_consumed, got %v", err)
	}
}

func TestBuilder_StreamAlreadyClaimed(t *testing.T) {
	in := closedStream(1)
	if _, err := NewProcess[int, int]().Ingressor(in).Processor(element.Identity[int]()).Build(); err != nil {
		t.Fatal(err)
	}
	_, err := NewClone[int]().Ingressor(in).NumEgressors(2).Build()
	if !errors.HasViolation(err, SlotIngressor, errors.ReasonStreamConsumed) {
		t.Errorf("expected stream_consumed, got %v", err)
	}
}

func TestJoin_PreservesPerLineOrder(t *testing.T) {
	const lines, perLine = 3, 50
	var runnables []*Runnable
	var ins []*PacketStream[[2]int]
	for l := 0; l < lines; l++ {
		items := make([][2]int, perLine)
		for i := range items {
			items[i] = [2]int{l, i}
		}
		src, s := FromSlice("src", items, 4)
		runnables = append(runnables, src)
		ins = append(ins, s)
	}

	j, err := NewJoin[[2]int]().Ingressors(ins).QueueCapacity(2).Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(j.Runnables) != lines+1 || len(j.Egressors) != 1 {
		t.Fatalf("expected %d runnables and 1 egressor, got %d and %d", lines+1, len(j.Runnables), len(j.Egressors))
	}
	sinks, out := collectAll(t, j.Egressors)
	runnables = append(append(runnables, j.Runnables...), sinks...)
	if err := runAll(t, runnables...); err != nil {
		t.Fatal(err)
	}

	got := out[0].Items()
	if len(got) != lines*perLine {
		t.Fatalf("expected %d items, got %d", lines*perLine, len(got))
	}
	next := make([]int, lines)
	for _, it := range got {
		if it[1] != next[it[0]] {
			t.Fatalf("line %d out of order: got %d, want %d", it[0], it[1], next[it[0]])
		}
		next[it[0]]++
	}
}

func TestJoin_SingleLine(t *testing.T) {
	j, err := NewJoin[int]().Ingressors([]*PacketStream[int]{closedStream(1, 2, 3)}).Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, j.Egressors)
	if err := runAll(t, append(j.Runnables, sinks...)...); err != nil {
		t.Fatal(err)
	}
	if got := out[0].Items(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestJoin_EmptyLinesClose(t *testing.T) {
	j, err := NewJoin[int]().Ingressors([]*PacketStream[int]{closedStream[int](), closedStream[int]()}).Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, j.Egressors)
	if err := runAll(t, append(j.Runnables, sinks...)...); err != nil {
		t.Fatal(err)
	}
	if out[0].Len() != 0 {
		t.Errorf("expected no items, got %v", out[0].Items())
	}
}

func TestJoin_BuildErrors(t *testing.T) {
	s := closedStream[int]()
	tests := []struct {
		name   string
		ins    []*PacketStream[int]
		set    bool
		slot   string
		reason string
	}{
		{"unset", nil, false, SlotIngressors, errors.ReasonMissing},
		{"empty", []*PacketStream[int]{}, true, SlotIngressors, errors.ReasonMissing},
		{"nil stream", []*PacketStream[int]{closedStream[int](), nil}, true, "ingressors[1]", errors.ReasonMissing},
		{"duplicate", []*PacketStream[int]{s, s}, true, "ingressors[1]", errors.ReasonStreamConsumed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			b := NewJoin[int]()
			if tt.set {
				b.Ingressors(tt.ins)
			}
			_, err := b.Build()
			if !errors.HasViolation(err, tt.slot, tt.reason) {
				t.Errorf("expected %s/%s, got %v", tt.slot, tt.reason, err)
			}
		})
	}
}

func TestJoin_TooManyLines(t *testing.T) {
	ins := make([]*PacketStream[int], MaxEgressors+1)
	for i := range ins {
		ins[i] = closedStream[int]()
	}
	_, err := NewJoin[int]().Ingressors(ins).Build()
	if !errors.HasViolation(err, SlotIngressors, errors.ReasonOutOfRange) {
		t.Errorf("expected out_of_range, got %v", err)
	}
}

func TestLineSelector_RoundRobin(t *testing.T) {
	lines := makeChannels[int](3, 4)
	for l, ch := range lines {
		for i := 0; i < 3; i++ {
			ch <- l*10 + i
		}
	}
	sel := newLineSelector(context.Background(), lines)

	var order []int
	for i := 0; i < 9; i++ {
		item, line, ok, err := sel.next()
		if err != nil || !ok {
			t.Fatalf("unexpected next result line=%d ok=%v err=%v", line, ok, err)
		}
		order = append(order, item)
	}
	want := []int{0, 10, 20, 1, 11, 21, 2, 12, 22}
	if !slices.Equal(order, want) {
		t.Errorf("got %v, want %v", order, want)
	}
}

func TestLineSelector_NoStarvation(t *testing.T) {
	lines := makeChannels[int](2, 10)
	for i := 0; i < 10; i++ {
		lines[0] <- i
	}
	lines[1] <- 100
	sel := newLineSelector(context.Background(), lines)

	for i := 0; i < 2; i++ {
		item, _, _, _ := sel.next()
		if item == 100 {
			return
		}
	}
	t.Error("line 1 was not served within 2 items")
}

func TestLineSelector_ClosedAndCancelled(t *testing.T) {
	lines := makeChannels[int](2, 1)
	close(lines[0])
	ctx, cancel := context.WithCancel(context.Background())
	sel := newLineSelector(ctx, lines)

	_, line, ok, err := sel.next()
	if err != nil || ok || line != 0 {
		t.Fatalf("expected closed line 0, got line=%d ok=%v err=%v", line, ok, err)
	}
	sel.closeLine(line)
	if sel.live != 1 {
		t.Fatalf("expected 1 live line, got %d", sel.live)
	}

	cancel()
	if _, _, _, err := sel.next(); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProcess_TransformsAndDrops(t *testing.T) {
	src, in := FromSlice("src", []int{1, 2, 3, 4, 5, 6}, 2)
	stats := observability.NewStats()
	p, err := NewProcess[int, string]().
		Ingressor(in).
		Processor(element.ProcessorFunc[int, string](func(n int) (string, bool) {
			if n%2 == 1 {
				return "", false
			}
			return string(rune('a' + n)), true
		})).
		Name("evens").
		Observer(stats).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, p.Egressors)
	if err := runAll(t, append([]*Runnable{src, p.Runnables[0]}, sinks...)...); err != nil {
		t.Fatal(err)
	}
	if got := out[0].Items(); !slices.Equal(got, []string{"c", "e", "g"}) {
		t.Errorf("got %v", got)
	}
	snap, _ := stats.Stage("evens")
	if snap.Dropped != 3 || snap.Emitted != 3 {
		t.Errorf("unexpected stats %+v", snap)
	}
}

func TestProcess_StatefulElement(t *testing.T) {
	counter := element.NewCounter[int]()
	p, err := NewProcess[int, int]().Ingressor(closedStream(1, 2, 3)).Processor(counter).Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, p.Egressors)
	if err := runAll(t, append(p.Runnables, sinks...)...); err != nil {
		t.Fatal(err)
	}
	if counter.Count() != 3 || out[0].Len() != 3 {
		t.Errorf("count=%d collected=%d", counter.Count(), out[0].Len())
	}
}

func TestProcess_BuildErrors(t *testing.T) {
	_, err := NewProcess[int, int]().Build()
	if !errors.HasViolation(err, SlotIngressor, errors.ReasonMissing) ||
		!errors.HasViolation(err, SlotProcessor, errors.ReasonMissing) {
		t.Errorf("expected both missing slots, got %v", err)
	}

	tests := []struct {
		name  string
		build func() error
		slot  string
	}{
		{"nil processor then set", func() error {
			_, err := NewProcess[int, int]().Ingressor(closedStream(1)).Processor(nil).Processor(element.Identity[int]()).Build()
			return err
		}, SlotProcessor},
		{"nil ingressor then set", func() error {
			_, err := NewProcess[int, int]().Ingressor(nil).Ingressor(closedStream(1)).Processor(element.Identity[int]()).Build()
			return err
		}, SlotIngressor},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.build(); !errors.HasViolation(err, tt.slot, errors.ReasonSlotAlreadySet) {
				t.Errorf("expected %s/slot_already_set, got %v", tt.slot, err)
			}
		})
	}
}

type packet struct {
	payload []byte
}

func (p *packet) Clone() *packet {
	return &packet{payload: append([]byte(nil), p.payload...)}
}

func TestClone_IdenticalBranches(t *testing.T) {
	src, in := FromSlice("src", []string{"x", "y", "z"}, 3)
	c, err := NewClone[string]().Ingressor(in).NumEgressors(3).Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, c.Egressors)
	if err := runAll(t, append(append([]*Runnable{src}, c.Runnables...), sinks...)...); err != nil {
		t.Fatal(err)
	}
	for i, col := range out {
		if got := col.Items(); !slices.Equal(got, []string{"x", "y", "z"}) {
			t.Errorf("branch %d = %v", i, got)
		}
	}
}

func TestClone_DeepCopiesCloners(t *testing.T) {
	orig := &packet{payload: []byte("abc")}
	c, err := NewClone[*packet]().Ingressor(closedStream(orig)).NumEgressors(2).Build()
	if err != nil {
		t.Fatal(err)
	}
	sinks, out := collectAll(t, c.Egressors)
	if err := runAll(t, append(c.Runnables, sinks...)...); err != nil {
		t.Fatal(err)
	}
	a, b := out[0].Items()[0], out[1].Items()[0]
	if a == b {
		t.Fatal("expected distinct copies per branch")
	}
	b.payload[0] = 'z'
	if string(a.payload) != "abc" {
		t.Error("mutating one branch leaked into another")
	}
}

func TestClone_SlowBranchThrottlesAll(t *testing.T) {
	src, in := FromSlice("src", []int{1, 2, 3, 4, 5, 6, 7, 8}, 1)
	c, err := NewClone[int]().Ingressor(in).NumEgressors(2).QueueCapacity(1).Build()
	if err != nil {
		t.Fatal(err)
	}
	fast, err := c.Egressors[0].Take()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 2)
	go func() { done <- src.Run(ctx) }()
	go func() { done <- c.Runnables[0].Run(ctx) }()

	received := 0
	timeout := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case _, ok := <-fast:
			if !ok {
				break loop
			}
			received++
		case <-timeout:
			break loop
		}
	}
	if received > 2 {
		t.Errorf("fast branch got %d items while the other branch was blocked", received)
	}

	cancel()
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil && !stderrors.Is(err, context.Canceled) {
			t.Errorf("unexpected error %v", err)
		}
	}
}

func TestClone_BuildErrors(t *testing.T) {
	_, err := NewClone[int]().Ingressor(closedStream[int]()).NumEgressors(0).QueueCapacity(1001).Build()
	if !errors.HasViolation(err, SlotNumEgressors, errors.ReasonOutOfRange) ||
		!errors.HasViolation(err, SlotQueueCapacity, errors.ReasonOutOfRange) {
		t.Errorf("expected both range violations, got %v", err)
	}

	_, err = NewClone[int]().Ingressor(nil).Ingressor(closedStream[int]()).NumEgressors(1).Build()
	if !errors.HasViolation(err, SlotIngressor, errors.ReasonSlotAlreadySet) {
		t.Errorf("expected ingressor/slot_already_set, got %v", err)
	}
}

func TestCancellationClosesEgress(t *testing.T) {
	in := make(chan int)
	p, err := NewProcess[int, int]().Ingressor(NewStream[int](in)).Processor(element.Identity[int]()).Build()
	if err != nil {
		t.Fatal(err)
	}
	out, _ := p.Egressors[0].Take()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Runnables[0].Run(ctx) }()
	cancel()

	if err := <-done; !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, ok := <-out; ok {
		t.Error("expected egress to be closed")
	}
}

func TestStream_TakeTwice(t *testing.T) {
	s := closedStream(1)
	if _, err := s.Take(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Take(); !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestUnclaimed(t *testing.T) {
	c, err := NewClone[int]().Ingressor(closedStream[int]()).NumEgressors(2).Name("dup").Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Egressors[0].Take(); err != nil {
		t.Fatal(err)
	}
	err = Unclaimed(Streams(c.Egressors)...)
	if !errors.HasViolation(err, "dup[1]", errors.ReasonUnclaimedStream) {
		t.Errorf("expected unclaimed dup[1], got %v", err)
	}
	if errors.HasViolation(err, "dup[0]", "") {
		t.Error("dup[0] was claimed")
	}
	if _, err := c.Egressors[1].Take(); err != nil {
		t.Fatal(err)
	}
	if err := Unclaimed(Streams(c.Egressors)...); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestDrain_PropagatesError(t *testing.T) {
	boom := stderrors.New("sink failed")
	r, err := Drain("sink", closedStream(1, 2), func(context.Context, int) error { return boom })
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background()); !stderrors.Is(err, boom) {
		t.Errorf("expected sink error, got %v", err)
	}
}

func TestGenerate_Error(t *testing.T) {
	boom := stderrors.New("read failed")
	r, s := Generate("gen", 1, func(context.Context) (int, bool, error) { return 0, false, boom })
	ch, _ := s.Take()
	if err := r.Run(context.Background()); !stderrors.Is(err, boom) {
		t.Errorf("expected generator error, got %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected stream to be closed")
	}
}

func TestDefaultStageNames(t *testing.T) {
	a, _ := NewProcess[int, int]().Ingressor(closedStream[int]()).Processor(element.Identity[int]()).Build()
	b, _ := NewProcess[int, int]().Ingressor(closedStream[int]()).Processor(element.Identity[int]()).Build()
	if a.Runnables[0].Name() == b.Runnables[0].Name() {
		t.Errorf("expected unique default names, both %q", a.Runnables[0].Name())
	}
	if a.Egressors[0].Origin() != a.Runnables[0].Name()+"[0]" {
		t.Errorf("unexpected origin %q", a.Egressors[0].Origin())
	}
}
