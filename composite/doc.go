// Package composite provides builders assembled from the primitive links.
//
// JoinTransformClone is the fan-in, transform, fan-out pattern: M input
// streams are merged, one element runs on the merged stream, and every result
// is replicated to N outputs.
package composite
