package element

import (
	"github.com/kbukum/packetflow/logger"
)

// WithLogging wraps a Processor and logs every dropped item at debug level.
func WithLogging[I, O any](p Processor[I, O], name string, log *logger.Logger) Processor[I, O] {
	return &loggingProcessor[I, O]{inner: p, name: name, log: log}
}

type loggingProcessor[I, O any] struct {
	inner   Processor[I, O]
	name    string
	log     *logger.Logger
	dropped int64
}

func (p *loggingProcessor[I, O]) Process(item I) (O, bool) {
	out, ok := p.inner.Process(item)
	if !ok {
		p.dropped++
		p.log.Debug("element dropped item", logger.Fields(
			"element", p.name,
			"dropped_total", p.dropped,
		))
	}
	return out, ok
}
