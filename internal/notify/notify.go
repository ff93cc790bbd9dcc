// Package notify provides a small publish/subscribe hub used to fan poll
// results out to update streams.
package notify

import "sync"

// Hub broadcasts values to all current subscribers. Subscriber channels hold
// one value; publishing to a subscriber that has not consumed the previous
// value replaces it, so a slow stream misses intermediate states but always
// resumes with the latest one, and never blocks the publisher.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[chan T]struct{})}
}

// Subscribe registers a new subscriber channel.
func (h *Hub[T]) Subscribe() chan T {
	c := make(chan T, 1)
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Unsubscribe removes a subscriber. The channel is not closed; a publish
// racing with unsubscribe must not panic.
func (h *Hub[T]) Unsubscribe(c chan T) {
	h.mu.Lock()
	delete(h.subs, c)
	h.mu.Unlock()
}

// Publish delivers v to every subscriber. A full subscriber buffer is
// drained first so the stale value is replaced, not kept. Publishers are
// serialized by the hub lock and subscribers only receive, so the send after
// the drain cannot block.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs {
		select {
		case c <- v:
		default:
			select {
			case <-c:
			default:
			}
			c <- v
		}
	}
}
