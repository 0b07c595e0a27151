// Package errors provides the structured error type shared by the link runtime,
// its builders and the service shell around them.
//
// Two kinds matter to pipeline authors: CONFIGURATION_ERROR, returned by any
// Build call before a single item flows, and DISPATCH_INDEX_ERROR, returned by a
// classify stage whose dispatcher picked a branch that does not exist. Dropping
// an item is never an error.
package errors
