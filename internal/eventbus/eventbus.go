// Package eventbus dispatches typed events to in-process subscribers.
// Handlers run synchronously on the publishing goroutine.
package eventbus

import (
	"context"
	"reflect"
	"sync"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type subscriber struct {
	id      uint64
	deliver func(context.Context, any)
}

// Bus routes each event to the subscribers of its static type. A nil *Bus
// accepts subscriptions and drops every event.
type Bus struct {
	mu     sync.Mutex
	lastID uint64
	// topics are replaced on every change, never mutated, so Publish can
	// iterate a snapshot without holding mu.
	topics map[reflect.Type][]subscriber
}

func New() *Bus { return &Bus{topics: map[reflect.Type][]subscriber{}} }

func topicOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// Subscribe registers h for events of type T. The returned func removes it
// and may be called more than once.
func Subscribe[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	topic := topicOf[T]()

	b.mu.Lock()
	b.lastID++
	id := b.lastID
	subs := b.topics[topic]
	next := make([]subscriber, len(subs), len(subs)+1)
	copy(next, subs)
	b.topics[topic] = append(next, subscriber{id: id, deliver: func(ctx context.Context, e any) { h(ctx, e.(T)) }})
	b.mu.Unlock()

	return func() { b.remove(topic, id) }
}

func (b *Bus) remove(topic reflect.Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[topic]
	next := make([]subscriber, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			next = append(next, s)
		}
	}
	if len(next) == 0 {
		delete(b.topics, topic)
		return
	}
	b.topics[topic] = next
}

// Publish delivers e to the subscribers of T in subscription order.
func Publish[T any](ctx context.Context, b *Bus, e T) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := b.topics[topicOf[T]()]
	b.mu.Unlock()
	for _, s := range subs {
		s.deliver(ctx, e)
	}
}
