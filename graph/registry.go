package graph

import (
	"sort"
	"sync"

	"github.com/kbukum/packetflow/element"
)

// Factory creates a fresh value for every stage that references it, so
// stateful elements are never shared between stages.
type Factory[V any] func() V

// Registry provides named lookup of elements, classifiers and dispatchers
// for graph assembly. Items flowing through the graph are of type T and
// classifiers produce string categories.
type Registry[T any] struct {
	mu          sync.RWMutex
	elements    map[string]Factory[element.Processor[T, T]]
	classifiers map[string]Factory[element.Classifier[T, string]]
	dispatchers map[string]Factory[element.Dispatcher[string]]
}

// NewRegistry creates a new empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		elements:    make(map[string]Factory[element.Processor[T, T]]),
		classifiers: make(map[string]Factory[element.Classifier[T, string]]),
		dispatchers: make(map[string]Factory[element.Dispatcher[string]]),
	}
}

// RegisterElement adds a processor factory. A later registration replaces an
// earlier one with the same name.
func (r *Registry[T]) RegisterElement(name string, f Factory[element.Processor[T, T]]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements[name] = f
}

// RegisterClassifier adds a classifier factory.
func (r *Registry[T]) RegisterClassifier(name string, f Factory[element.Classifier[T, string]]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifiers[name] = f
}

// RegisterDispatcher adds a dispatcher factory.
func (r *Registry[T]) RegisterDispatcher(name string, f Factory[element.Dispatcher[string]]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatchers[name] = f
}

// Element creates the processor registered under name.
func (r *Registry[T]) Element(name string) (element.Processor[T, T], bool) {
	r.mu.RLock()
	f, ok := r.elements[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Classifier creates the classifier registered under name.
func (r *Registry[T]) Classifier(name string) (element.Classifier[T, string], bool) {
	r.mu.RLock()
	f, ok := r.classifiers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Dispatcher creates the dispatcher registered under name.
func (r *Registry[T]) Dispatcher(name string) (element.Dispatcher[string], bool) {
	r.mu.RLock()
	f, ok := r.dispatchers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Elements returns sorted names of all registered elements.
func (r *Registry[T]) Elements() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.elements)
}

// Classifiers returns sorted names of all registered classifiers.
func (r *Registry[T]) Classifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.classifiers)
}

// Dispatchers returns sorted names of all registered dispatchers.
func (r *Registry[T]) Dispatchers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.dispatchers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
