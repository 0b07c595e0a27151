package observability

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// StageSnapshot is a point-in-time copy of one stage's counters.
type StageSnapshot struct {
	Stage    string  `json:"stage"`
	Kind     string  `json:"kind"`
	Running  bool    `json:"running"`
	Received int64   `json:"received"`
	Emitted  int64   `json:"emitted"`
	Dropped  int64   `json:"dropped"`
	Branches []int64 `json:"branches,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type stageCounters struct {
	kind     atomic.Value // string
	running  atomic.Bool
	received atomic.Int64
	emitted  atomic.Int64
	dropped  atomic.Int64
	mu       sync.Mutex
	branches []int64
	err      string
}

// Stats is an in-memory Observer that keeps counters per stage. The status
// endpoint serves its snapshots.
type Stats struct {
	stages sync.Map // string -> *stageCounters
}

// NewStats creates an empty Stats observer.
func NewStats() *Stats { return &Stats{} }

func (s *Stats) stage(name string) *stageCounters {
	if c, ok := s.stages.Load(name); ok {
		return c.(*stageCounters)
	}
	c, _ := s.stages.LoadOrStore(name, &stageCounters{})
	return c.(*stageCounters)
}

func (s *Stats) StageStarted(_ context.Context, stage, kind string) {
	c := s.stage(stage)
	c.kind.Store(kind)
	c.running.Store(true)
}

func (s *Stats) StageFinished(_ context.Context, stage, kind string, err error) {
	c := s.stage(stage)
	c.kind.Store(kind)
	c.running.Store(false)
	if err != nil {
		c.mu.Lock()
		c.err = err.Error()
		c.mu.Unlock()
	}
}

func (s *Stats) ItemReceived(_ context.Context, stage string) {
	s.stage(stage).received.Add(1)
}

func (s *Stats) ItemEmitted(_ context.Context, stage string, branch int) {
	c := s.stage(stage)
	c.emitted.Add(1)
	if branch < 0 {
		return
	}
	c.mu.Lock()
	for len(c.branches) <= branch {
		c.branches = append(c.branches, 0)
	}
	c.branches[branch]++
	c.mu.Unlock()
}

func (s *Stats) ItemDropped(_ context.Context, stage string) {
	s.stage(stage).dropped.Add(1)
}

// Stage returns the snapshot for one stage.
func (s *Stats) Stage(name string) (StageSnapshot, bool) {
	c, ok := s.stages.Load(name)
	if !ok {
		return StageSnapshot{}, false
	}
	return snapshot(name, c.(*stageCounters)), true
}

// Snapshot returns every stage's counters sorted by stage name.
func (s *Stats) Snapshot() []StageSnapshot {
	var out []StageSnapshot
	s.stages.Range(func(k, v any) bool {
		out = append(out, snapshot(k.(string), v.(*stageCounters)))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}

func snapshot(name string, c *stageCounters) StageSnapshot {
	kind, _ := c.kind.Load().(string)
	c.mu.Lock()
	branches := append([]int64(nil), c.branches...)
	errMsg := c.err
	c.mu.Unlock()
	return StageSnapshot{
		Stage:    name,
		Kind:     kind,
		Running:  c.running.Load(),
		Received: c.received.Load(),
		Emitted:  c.emitted.Load(),
		Dropped:  c.dropped.Load(),
		Branches: branches,
		Error:    errMsg,
	}
}
