// Package bus fans values out to subscribers without ever blocking the sender.
package bus

import (
	"sync"
)

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[*chan T]struct{}),
	}
}

type Hub[T any] struct {
	mu   sync.Mutex
	subs map[*chan T]struct{}
}

// Broadcast offers event to every subscriber. Subscribers that haven't
// drained their previous value miss this one.
func (h *Hub[T]) Broadcast(event T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case *sub <- event:
		default:
		}
	}
}

// Subscribe returns a channel of broadcasts and a function that unsubscribes.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	h.mu.Lock()
	c := make(chan T, 1)

	key := &c
	h.subs[key] = struct{}{}
	h.mu.Unlock()

	return c, func() {
		h.mu.Lock()
		delete(h.subs, key)
		h.mu.Unlock()
	}
}

// Len is the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
