// Package link is the packet-processing runtime: typed, single-consumer
// streams and the builders that wire them into concurrent stages.
//
// Four primitive links exist:
//
//   - Classify routes each item to at most one of N branches.
//   - Join merges M streams into one, serving lines round-robin.
//   - Process transforms or drops each item.
//   - Clone replicates each item to N branches.
//
// Every builder validates all of its slots at Build and reports every problem
// in one CONFIGURATION_ERROR before any item flows. A successful Build returns
// a Link: runnables for a scheduler and egress streams for the next builder.
//
//	in := link.NewStream(ch)
//	l, err := link.NewClassify[Packet, Zone]().
//	    Ingressor(in).
//	    Classifier(byZone).
//	    Dispatcher(element.MapDispatcher(map[Zone]int{Lan: 0, Wan: 1})).
//	    NumEgressors(2).
//	    Build()
//
// Stages communicate only through bounded channels. A send blocks while the
// downstream queue is full; a stage closes its outputs after its inputs are
// closed and drained, so shutdown flows downstream from the sources.
package link
