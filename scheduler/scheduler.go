package scheduler

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/logger"
	"github.com/kbukum/packetflow/observability"
)

// Scheduler runs the runnables of an assembled pipeline, each on its own
// goroutine, until they all finish or one fails.
type Scheduler struct {
	log     *logger.Logger
	tracing bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for run and runnable events.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTracing enables a span per run and per runnable.
func WithTracing(enabled bool) Option {
	return func(s *Scheduler) { s.tracing = enabled }
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{log: logger.Get("scheduler")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRunID returns a fresh identifier for one pipeline run.
func NewRunID() string {
	return uuid.NewString()
}

// Run starts every runnable and blocks until all of them return.
//
// The first runnable to fail cancels the others. Errors caused only by that
// cancellation are discarded, the remaining ones are combined. When ctx is
// cancelled and nothing else failed, Run returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, runnables ...*link.Runnable) error {
	runID, ok := logger.RunIDFromContext(ctx)
	if !ok {
		runID = NewRunID()
		ctx = logger.ContextWithRunID(ctx, runID)
	}

	var span trace.Span
	if s.tracing {
		ctx, span = observability.StartSpan(ctx, observability.SpanPipelineRun, trace.WithAttributes(
			attribute.String(observability.AttrRunID, runID),
			attribute.Int(observability.AttrRunnables, len(runnables)),
		))
	}

	log := s.log.WithContext(ctx)
	log.Info("pipeline run started", logger.Fields("runnables", len(runnables)))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	var (
		mu   sync.Mutex
		errs error
	)
	for _, r := range runnables {
		r := r
		if r == nil {
			continue
		}
		g.Go(func() error {
			err := s.runOne(gctx, r, runID)
			if err == nil || cancelledBySibling(err, gctx, ctx) {
				return err
			}
			mu.Lock()
			errs = multierr.Append(errs, fmt.Errorf("runnable %s: %w", r.Name(), err))
			mu.Unlock()
			return err
		})
	}
	_ = g.Wait()

	if errs == nil && ctx.Err() != nil {
		errs = ctx.Err()
	}

	fields := logger.DurationFields("run", time.Since(start))
	if errs != nil {
		fields[logger.FieldError] = errs.Error()
		log.Error("pipeline run failed", fields)
	} else {
		log.Info("pipeline run finished", fields)
	}

	if span != nil {
		observability.EndSpan(span, errs)
	}
	return errs
}

func (s *Scheduler) runOne(ctx context.Context, r *link.Runnable, runID string) error {
	var span trace.Span
	if s.tracing {
		ctx, span = observability.StartRunnableSpan(ctx, r.Name(), runID)
	}

	err := r.Run(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		s.log.WithContext(ctx).Error("runnable failed", logger.Fields(
			logger.FieldRunnable, r.Name(),
			logger.FieldError, err.Error(),
		))
	}

	if span != nil {
		if stderrors.Is(err, context.Canceled) {
			observability.EndSpan(span, nil)
		} else {
			observability.EndSpan(span, err)
		}
	}
	return err
}

// cancelledBySibling reports whether err is only the echo of a cancellation
// the run itself caused, either through a failed sibling or the parent ctx.
func cancelledBySibling(err error, gctx, parent context.Context) bool {
	if !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return gctx.Err() != nil || parent.Err() != nil
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled)
}
