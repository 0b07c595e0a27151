// Package element defines the synchronous units of work that links run:
// processors that transform or drop items, classifiers that label them, and
// dispatchers that turn a label into a branch index.
//
// Elements never block, never see channels and are owned by exactly one stage.
package element
