// Package observable provides a single mutable value with change
// notification.
package observable

// Unsubscriber removes the listener it was returned for. Calling it more
// than once is a no-op.
type Unsubscriber func()

// Store is the contract consumers of a value container rely on.
type Store[T any] interface {
	Get() T
	Set(value T)
	Update(fn func(T) T)
	Subscribe(listener func(T)) Unsubscriber
}
