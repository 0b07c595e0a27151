// Package scheduler executes the runnables produced by link builders.
//
// Each runnable gets its own goroutine inside an errgroup. The first failure
// cancels the shared context, which every link observes on its next receive
// or send, so the whole pipeline winds down. Each run carries a UUID run ID
// that is added to log lines and spans.
//
// Pipeline wraps a run as a component.Component for the service lifecycle.
package scheduler
