package element

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kbukum/packetflow/logger"
	"github.com/kbukum/packetflow/resilience"
)

type buffer struct {
	data []byte
}

func (b *buffer) Clone() *buffer {
	return &buffer{data: append([]byte(nil), b.data...)}
}

func TestIdentity(t *testing.T) {
	p := Identity[string]()
	out, ok := p.Process("x")
	if !ok || out != "x" {
		t.Errorf("got %q, %v", out, ok)
	}
}

func TestMapFilterChain(t *testing.T) {
	double := Map(func(n int) int { return n * 2 })
	even := Filter(func(n int) bool { return n%4 == 0 })
	p := Chain(double, even)

	tests := []struct {
		in     int
		want   int
		wantOK bool
	}{
		{1, 0, false},
		{2, 4, true},
		{3, 0, false},
		{4, 8, true},
	}
	for _, tt := range tests {
		got, ok := p.Process(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Process(%d) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestChain_FirstDrops(t *testing.T) {
	calls := 0
	second := ProcessorFunc[int, int](func(n int) (int, bool) { calls++; return n, true })
	p := Chain[int, int, int](Filter(func(int) bool { return false }), second)
	if _, ok := p.Process(1); ok {
		t.Error("expected drop")
	}
	if calls != 0 {
		t.Error("second stage must not run after a drop")
	}
}

func TestCounter(t *testing.T) {
	c := NewCounter[int]()
	for i := 0; i < 5; i++ {
		if out, ok := c.Process(i); !ok || out != i {
			t.Fatalf("counter must forward unchanged, got %d %v", out, ok)
		}
	}
	if c.Count() != 5 {
		t.Errorf("expected 5, got %d", c.Count())
	}
}

func TestClassifierFunc(t *testing.T) {
	c := ClassifierFunc[string, int](func(s string) int { return len(s) })
	if got := c.Classify("abc"); got != 3 {
		t.Errorf("got %d", got)
	}
}

func TestDirect(t *testing.T) {
	d := Direct()
	if i, ok := d(3); !ok || i != 3 {
		t.Errorf("got %d %v", i, ok)
	}
	if i, ok := d(-1); !ok || i != -1 {
		t.Errorf("negative categories must pass through, got %d %v", i, ok)
	}
}

func TestMapDispatcher(t *testing.T) {
	routes := map[string]int{"A": 0, "B": 1}
	d := MapDispatcher(routes)
	routes["C"] = 2 // must not leak into the dispatcher

	tests := []struct {
		cat    string
		want   int
		wantOK bool
	}{
		{"A", 0, true},
		{"B", 1, true},
		{"C", 0, false},
	}
	for _, tt := range tests {
		i, ok := d(tt.cat)
		if ok != tt.wantOK || (ok && i != tt.want) {
			t.Errorf("dispatch(%s) = %d, %v", tt.cat, i, ok)
		}
	}
}

func TestCopy(t *testing.T) {
	orig := &buffer{data: []byte("abc")}
	cp := Copy(orig)
	if cp == orig {
		t.Fatal("expected a distinct copy for Cloner items")
	}
	cp.data[0] = 'z'
	if orig.data[0] != 'a' {
		t.Error("copy must not alias the original")
	}

	if Copy(42) != 42 {
		t.Error("plain values copy by assignment")
	}
}

func TestWithLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, buf, "test")
	p := WithLogging(Filter(func(n int) bool { return n > 0 }), "positive", log)

	if _, ok := p.Process(1); !ok {
		t.Error("expected 1 to pass")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log for forwarded item, got %q", buf.String())
	}
	if _, ok := p.Process(-1); ok {
		t.Error("expected -1 to drop")
	}
	if !strings.Contains(buf.String(), `"element":"positive"`) {
		t.Errorf("expected drop log, got %q", buf.String())
	}
}

func TestPoliceDropsOverRate(t *testing.T) {
	p := Police[int](resilience.NewTokenBucket(resilience.TokenBucketConfig{Rate: 0.001, Burst: 3}))
	passed := 0
	for i := 0; i < 10; i++ {
		if _, ok := p.Process(i); ok {
			passed++
		}
	}
	if passed != 3 {
		t.Errorf("expected burst of 3 to pass, got %d", passed)
	}
}
