package graph

import (
	"fmt"
	"strings"

	"github.com/kbukum/packetflow/composite"
	"github.com/kbukum/packetflow/config"
	"github.com/kbukum/packetflow/element"
	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/logger"
	"github.com/kbukum/packetflow/observability"
	"github.com/kbukum/packetflow/validation"
)

// Assembly is a built graph: the runnables to schedule and the sink streams
// the caller must consume.
type Assembly[T any] struct {
	Name string
	// Order lists stage names in the order they were built.
	Order     []string
	Runnables []*link.Runnable
	Sinks     map[string]*link.PacketStream[T]
}

// Option configures Assemble.
type Option func(*options)

type options struct {
	runtime  config.Runtime
	observer observability.Observer
	log      *logger.Logger
}

// WithRuntime sets the default queue capacities for stages that do not set
// their own. Zero fields keep the built-in default.
func WithRuntime(rt config.Runtime) Option {
	return func(o *options) {
		if rt.QueueCapacity > 0 {
			o.runtime.QueueCapacity = rt.QueueCapacity
		}
		if rt.JoinQueueCapacity > 0 {
			o.runtime.JoinQueueCapacity = rt.JoinQueueCapacity
		}
		if rt.CloneQueueCapacity > 0 {
			o.runtime.CloneQueueCapacity = rt.CloneQueueCapacity
		}
	}
}

// WithObserver attaches o to every stage.
func WithObserver(o observability.Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithLogger sets the logger used for assembly and element drop logging.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Assemble builds every stage of def from reg, feeding the named sources.
// Nothing runs until the returned runnables are scheduled.
func Assemble[T any](def *Definition, reg *Registry[T], sources map[string]*link.PacketStream[T], opts ...Option) (*Assembly[T], error) {
	o := &options{
		runtime: config.Runtime{
			QueueCapacity:      config.DefaultQueueCapacity,
			JoinQueueCapacity:  config.DefaultQueueCapacity,
			CloneQueueCapacity: config.DefaultQueueCapacity,
		},
		log: logger.Get("graph"),
	}
	for _, opt := range opts {
		opt(o)
	}

	p, err := compile(def)
	if err != nil {
		return nil, err
	}
	resolved, err := resolve(p, reg, sources)
	if err != nil {
		return nil, err
	}

	streams := make(map[string]*link.PacketStream[T])
	for _, name := range def.Sources {
		streams[ref{node: name}.String()] = sources[name]
	}

	a := &Assembly[T]{Name: def.Name, Sinks: make(map[string]*link.PacketStream[T], len(def.Sinks))}
	for _, level := range p.levels {
		for _, name := range level {
			s := p.stages[name]
			built, err := buildStage(s, resolved[name], lookup(streams, s.inputs()), o)
			if err != nil {
				return nil, fmt.Errorf("graph %s: stage %s: %w", def.Name, name, err)
			}
			for i, e := range built.Egressors {
				streams[ref{node: name, index: i}.String()] = e
			}
			a.Runnables = append(a.Runnables, built.Runnables...)
			a.Order = append(a.Order, name)
		}
	}

	internal := make([]link.Stream, 0, len(streams))
	for _, sink := range def.Sinks {
		r, _ := parseRef(sink.Input)
		a.Sinks[sink.Name] = streams[r.String()]
	}
	for key, s := range streams {
		if !isSink(def, key) {
			internal = append(internal, s)
		}
	}
	if err := link.Unclaimed(internal...); err != nil {
		return nil, fmt.Errorf("graph %s: %w", def.Name, err)
	}

	o.log.Info("graph assembled", logger.Fields(
		logger.FieldGraph, def.Name,
		"stages", len(a.Order),
		"runnables", len(a.Runnables),
		"sinks", len(a.Sinks),
	))
	return a, nil
}

// parts holds the instances created for one stage by resolve.
type parts[T any] struct {
	element    element.Processor[T, T]
	classifier element.Classifier[T, string]
	dispatcher element.Dispatcher[string]
}

// resolve checks that every source is supplied and creates every registry
// instance before anything is built, so an unknown name or a factory that
// returns nil fails the assembly without claiming a stream.
func resolve[T any](p *plan, reg *Registry[T], sources map[string]*link.PacketStream[T]) (map[string]parts[T], error) {
	v := validation.New(Component)
	for _, name := range p.def.Sources {
		if sources[name] == nil {
			v.Add("sources."+name, errors.ReasonMissing, fmt.Sprintf("source %q was not supplied", name))
		}
	}

	resolved := make(map[string]parts[T], len(p.def.Stages))
	for _, s := range p.def.Stages {
		var pt parts[T]
		if s.Element != "" {
			e, ok := reg.Element(s.Element)
			checkInstance(v, stageSlot(s.Name, "element"), "element", s.Element, ok, e == nil, reg.Elements)
			pt.element = e
		}
		if s.Classifier != "" {
			c, ok := reg.Classifier(s.Classifier)
			checkInstance(v, stageSlot(s.Name, "classifier"), "classifier", s.Classifier, ok, c == nil, reg.Classifiers)
			pt.classifier = c
		}
		if s.Dispatcher != "" {
			d, ok := reg.Dispatcher(s.Dispatcher)
			checkInstance(v, stageSlot(s.Name, "dispatcher"), "dispatcher", s.Dispatcher, ok, d == nil, reg.Dispatchers)
			pt.dispatcher = d
		}
		resolved[s.Name] = pt
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func checkInstance(v *validation.Validator, slot, what, name string, registered, isNil bool, names func() []string) {
	switch {
	case !registered:
		v.Add(slot, errors.ReasonUnknownReference,
			fmt.Sprintf("%s %q is not registered (registered: %s)", what, name, strings.Join(names(), ", ")))
	case isNil:
		v.Add(slot, errors.ReasonInvalid, fmt.Sprintf("%s factory %q returned nil", what, name))
	}
}

func buildStage[T any](s *StageDef, pt parts[T], ins []*link.PacketStream[T], o *options) (link.Link[T], error) {
	capacity := func(set, fallback int) int {
		if set > 0 {
			return set
		}
		return fallback
	}

	switch s.Kind {
	case KindClassify:
		dispatcher := pt.dispatcher
		if dispatcher == nil {
			dispatcher = element.MapDispatcher(s.Routes)
		}
		b := link.NewClassify[T, string]().
			Ingressor(ins[0]).
			Classifier(pt.classifier).
			Dispatcher(dispatcher).
			NumEgressors(s.Egressors).
			QueueCapacity(capacity(s.QueueCapacity, o.runtime.QueueCapacity)).
			Name(s.Name)
		if o.observer != nil {
			b.Observer(o.observer)
		}
		return b.Build()

	case KindProcess:
		b := link.NewProcess[T, T]().
			Ingressor(ins[0]).
			Processor(element.WithLogging(pt.element, s.Element, o.log)).
			QueueCapacity(capacity(s.QueueCapacity, o.runtime.QueueCapacity)).
			Name(s.Name)
		if o.observer != nil {
			b.Observer(o.observer)
		}
		return b.Build()

	case KindJoin:
		b := link.NewJoin[T]().
			Ingressors(ins).
			QueueCapacity(capacity(s.QueueCapacity, o.runtime.JoinQueueCapacity)).
			Name(s.Name)
		if o.observer != nil {
			b.Observer(o.observer)
		}
		return b.Build()

	case KindClone:
		b := link.NewClone[T]().
			Ingressor(ins[0]).
			NumEgressors(s.Egressors).
			QueueCapacity(capacity(s.QueueCapacity, o.runtime.CloneQueueCapacity)).
			Name(s.Name)
		if o.observer != nil {
			b.Observer(o.observer)
		}
		return b.Build()

	case KindJoinTransformClone:
		b := composite.NewJoinTransformClone[T, T]().
			Ingressors(ins).
			Element(element.WithLogging(pt.element, s.Element, o.log)).
			NumEgressors(s.Egressors).
			JoinQueueCapacity(capacity(s.QueueCapacity, o.runtime.JoinQueueCapacity)).
			CloneQueueCapacity(capacity(s.CloneQueueCapacity, o.runtime.CloneQueueCapacity)).
			Name(s.Name)
		if o.observer != nil {
			b.Observer(o.observer)
		}
		return b.Build()
	}
	return link.Link[T]{}, fmt.Errorf("unknown stage kind %q", s.Kind)
}

func lookup[T any](streams map[string]*link.PacketStream[T], refs []string) []*link.PacketStream[T] {
	out := make([]*link.PacketStream[T], len(refs))
	for i, raw := range refs {
		r, _ := parseRef(raw)
		out[i] = streams[r.String()]
	}
	return out
}

func isSink(def *Definition, key string) bool {
	for _, sink := range def.Sinks {
		if r, ok := parseRef(sink.Input); ok && r.String() == key {
			return true
		}
	}
	return false
}
