package element

import "github.com/kbukum/packetflow/resilience"

// Police drops items that arrive while bucket is empty. The bucket is owned
// by the returned processor and must not be shared with another stage.
func Police[T any](bucket *resilience.TokenBucket) Processor[T, T] {
	return Filter(func(T) bool { return bucket.Allow() })
}
