package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/packetflow/component"
	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/logger"
)

// Pipeline runs a fixed set of runnables as a lifecycle component. Start
// launches the run in the background; Stop cancels it and waits.
type Pipeline struct {
	name      string
	runnables []*link.Runnable
	sched     *Scheduler

	mu      sync.Mutex
	runID   string
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	running bool
}

var _ component.Component = (*Pipeline)(nil)

// NewPipeline creates a Pipeline component. A nil scheduler uses New().
func NewPipeline(name string, sched *Scheduler, runnables ...*link.Runnable) *Pipeline {
	if sched == nil {
		sched = New()
	}
	return &Pipeline{name: name, runnables: runnables, sched: sched}
}

// Name implements component.Component.
func (p *Pipeline) Name() string { return p.name }

// Start implements component.Component. The run outlives ctx's deadline but
// keeps its values.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return fmt.Errorf("pipeline %s already started", p.name)
	}

	p.runID = NewRunID()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runCtx = logger.ContextWithRunID(runCtx, p.runID)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go func() {
		err := p.sched.Run(runCtx, p.runnables...)
		p.mu.Lock()
		p.err = err
		p.running = false
		p.mu.Unlock()
		close(p.done)
	}()
	return nil
}

// Stop implements component.Component. Cancellation caused by Stop is not
// reported as an error.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pipeline %s did not stop: %w", p.name, ctx.Err())
	}
}

// Wait blocks until the run finishes and returns its error. It returns nil
// immediately when the pipeline was never started.
func (p *Pipeline) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done is closed when the run finishes. It is nil before Start.
func (p *Pipeline) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// RunID returns the identifier of the current or last run.
func (p *Pipeline) RunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runID
}

// Health implements component.Component.
func (p *Pipeline) Health(context.Context) component.Health {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := component.Health{Name: p.name}
	switch {
	case p.done == nil:
		h.Status = component.StatusDegraded
		h.Message = "not started"
	case p.running:
		h.Status = component.StatusHealthy
		h.Message = "running"
	case p.err != nil && !isCancellation(p.err):
		h.Status = component.StatusUnhealthy
		h.Message = p.err.Error()
	default:
		h.Status = component.StatusHealthy
		h.Message = "finished"
	}
	return h
}
