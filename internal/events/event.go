// Package events provides a small typed publish/subscribe primitive used by
// the rest timer to report ticks and expiration.
package events

import "sync"

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Event fans a value out to every subscribed callback. Callbacks run on the
// publishing goroutine, in subscription order, outside the internal lock, so
// a callback may subscribe or unsubscribe without deadlocking.
type Event[T any] struct {
	mu        sync.RWMutex
	listeners []listener[T]
	nextID    uint64
}

// New creates an Event with no subscribers.
func New[T any]() *Event[T] {
	return &Event[T]{}
}

// Subscribe registers fn and returns a function that removes it again.
// The returned function is safe to call more than once.
func (e *Event[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		panic("events: nil callback")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Event[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return
		}
	}
}

// Publish calls every subscriber with value.
func (e *Event[T]) Publish(value T) {
	e.mu.RLock()
	snapshot := make([]func(T), len(e.listeners))
	for i, l := range e.listeners {
		snapshot[i] = l.fn
	}
	e.mu.RUnlock()

	for _, fn := range snapshot {
		fn(value)
	}
}

// Len returns the number of subscribers.
func (e *Event[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
