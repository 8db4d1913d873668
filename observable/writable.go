package observable

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

type subscription[T any] struct {
	id       uuid.UUID
	listener func(T)
}

type notification[T any] struct {
	id    uuid.UUID
	value T
}

// Writable holds one value and notifies listeners, in subscription order,
// every time it is set.
//
// Notifications go through a single queue. Whichever goroutine finds the
// queue idle delivers everything queued, including values set by other
// goroutines (or by listeners) while it is delivering, so every listener
// sees values in the order they were set and the last value it sees is the
// current one. A call made while another goroutine is delivering returns
// once its notifications are queued.
type Writable[T any] struct {
	// writeMu serializes writers; held while computing and committing a
	// new value, never while listeners run.
	writeMu sync.Mutex

	mu          sync.Mutex
	value       T
	subscribers []subscription[T]
	queue       []notification[T]
	delivering  bool
}

var _ Store[int] = (*Writable[int])(nil)

func NewWritable[T any](initial T) *Writable[T] {
	return &Writable[T]{value: initial}
}

func (w *Writable[T]) Get() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

func (w *Writable[T]) Set(value T) {
	w.writeMu.Lock()
	w.commit(value)
	w.writeMu.Unlock()

	w.deliver()
}

// Update sets fn(current). fn may call Get but must not call Set, Update
// or Commit on the same Writable.
func (w *Writable[T]) Update(fn func(T) T) {
	w.writeMu.Lock()
	w.commit(fn(w.Get()))
	w.writeMu.Unlock()

	w.deliver()
}

// Commit runs persist and, only if it succeeds, makes value current.
// No other writer can interleave between the two. persist must not write
// to the same Writable.
func (w *Writable[T]) Commit(value T, persist func(T) error) error {
	w.writeMu.Lock()
	if err := persist(value); err != nil {
		w.writeMu.Unlock()
		return err
	}
	w.commit(value)
	w.writeMu.Unlock()

	w.deliver()
	return nil
}

// Subscribe queues the current value for listener before any later change.
func (w *Writable[T]) Subscribe(listener func(T)) Unsubscriber {
	id := uuid.New()

	w.mu.Lock()
	w.subscribers = append(w.subscribers, subscription[T]{id: id, listener: listener})
	w.queue = append(w.queue, notification[T]{id: id, value: w.value})
	w.mu.Unlock()

	w.deliver()

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.subscribers = slices.DeleteFunc(slices.Clone(w.subscribers), func(sub subscription[T]) bool {
			return sub.id == id
		})
	}
}

// Subscribers reports how many listeners are registered.
func (w *Writable[T]) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subscribers)
}

func (w *Writable[T]) commit(value T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = value
	for _, sub := range w.subscribers {
		w.queue = append(w.queue, notification[T]{id: sub.id, value: value})
	}
}

func (w *Writable[T]) deliver() {
	w.mu.Lock()
	if w.delivering {
		w.mu.Unlock()
		return
	}
	w.delivering = true
	defer func() {
		w.queue = nil
		w.delivering = false
		w.mu.Unlock()
	}()

	for len(w.queue) > 0 {
		next := w.queue[0]
		w.queue = w.queue[1:]
		if listener := w.lookup(next.id); listener != nil {
			w.call(listener, next.value)
		}
	}
}

// call runs listener without the lock and reacquires it even if the
// listener panics.
func (w *Writable[T]) call(listener func(T), value T) {
	w.mu.Unlock()
	defer w.mu.Lock()
	listener(value)
}

// lookup skips notifications for listeners removed while queued.
func (w *Writable[T]) lookup(id uuid.UUID) func(T) {
	for _, sub := range w.subscribers {
		if sub.id == id {
			return sub.listener
		}
	}
	return nil
}
