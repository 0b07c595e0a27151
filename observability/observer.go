package observability

import "context"

// Observer receives per-item and per-stage lifecycle events from running
// links. Implementations must be safe for concurrent use: every stage calls
// its observer from its own goroutine.
type Observer interface {
	StageStarted(ctx context.Context, stage, kind string)
	StageFinished(ctx context.Context, stage, kind string, err error)
	ItemReceived(ctx context.Context, stage string)
	ItemEmitted(ctx context.Context, stage string, branch int)
	ItemDropped(ctx context.Context, stage string)
}

// Nop is an Observer that ignores every event.
type Nop struct{}

// Observer methods of Nop; each does nothing.
func (Nop) StageStarted(context.Context, string, string)         {}
func (Nop) StageFinished(context.Context, string, string, error) {}
func (Nop) ItemReceived(context.Context, string)                 {}
func (Nop) ItemEmitted(context.Context, string, int)             {}
func (Nop) ItemDropped(context.Context, string)                  {}

// Tee fans every event out to several observers in order. Nil entries are skipped.
func Tee(observers ...Observer) Observer {
	out := make(teeObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}

type teeObserver []Observer

func (t teeObserver) StageStarted(ctx context.Context, stage, kind string) {
	for _, o := range t {
		o.StageStarted(ctx, stage, kind)
	}
}

func (t teeObserver) StageFinished(ctx context.Context, stage, kind string, err error) {
	for _, o := range t {
		o.StageFinished(ctx, stage, kind, err)
	}
}

func (t teeObserver) ItemReceived(ctx context.Context, stage string) {
	for _, o := range t {
		o.ItemReceived(ctx, stage)
	}
}

func (t teeObserver) ItemEmitted(ctx context.Context, stage string, branch int) {
	for _, o := range t {
		o.ItemEmitted(ctx, stage, branch)
	}
}

func (t teeObserver) ItemDropped(ctx context.Context, stage string) {
	for _, o := range t {
		o.ItemDropped(ctx, stage)
	}
}
