// Package graph composes links from a YAML definition.
//
// A definition names its external sources, declares stages of kind classify,
// join, process, clone or join_transform_clone, and names the sinks the
// caller consumes:
//
//	name: split
//	sources: [in]
//	stages:
//	  - name: by_letter
//	    kind: classify
//	    input: in
//	    classifier: first_letter
//	    routes: {a: 0, b: 1}
//	    egressors: 2
//	sinks:
//	  - {name: a, input: by_letter.0}
//	  - {name: b, input: by_letter.1}
//
// A reference is a source or stage name, meaning its first output, or
// name.N. Assemble checks the wiring as a whole (unknown references, streams
// consumed twice or never, cycles) and reports every problem in one
// configuration error before building stages in dependency order.
// Elements, classifiers and dispatchers come from a Registry of factories so
// every stage gets its own instance.
package graph
