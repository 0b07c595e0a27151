package element

// Processor maps one input item to zero or one output item. Returning false
// drops the item. A Processor may keep mutable state; the runtime calls it
// from a single goroutine only.
type Processor[I, O any] interface {
	Process(item I) (O, bool)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc[I, O any] func(item I) (O, bool)

func (f ProcessorFunc[I, O]) Process(item I) (O, bool) { return f(item) }

// Classifier maps an item to a category without changing it.
type Classifier[T, C any] interface {
	Classify(item T) C
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc[T, C any] func(item T) C

func (f ClassifierFunc[T, C]) Classify(item T) C { return f(item) }

// Dispatcher maps a category to a branch index. Returning false drops the item.
// Dispatchers must be pure.
type Dispatcher[C any] func(category C) (int, bool)

// Cloner is implemented by items that need a deep copy when a clone stage
// replicates them. Items without it are copied by assignment.
type Cloner[T any] interface {
	Clone() T
}

// Copy returns a copy of item suitable for handing to an independent branch.
func Copy[T any](item T) T {
	if c, ok := any(item).(Cloner[T]); ok {
		return c.Clone()
	}
	return item
}
