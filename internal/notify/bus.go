// Package notify broadcasts confirmed entity changes between screens.
//
// A Bus is created by the composition root and handed to every screen that
// shows an entity in more than one place (a recipe card in the feed and the
// same recipe's detail view). Subscribers are keyed by entity id; there is
// no global instance.
package notify

import "sync"

// Change is a confirmed field value for one entity.
type Change struct {
	EntityID string
	Field    string
	Value    bool
}

// Bus is a publish/subscribe channel scoped to entity-id topics. The zero
// value is ready to use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string]map[uint64]func(Change)
	all    map[uint64]func(Change)
}

// Subscribe registers fn for changes to entityID. The returned func removes
// the subscription and is safe to call more than once.
func (b *Bus) Subscribe(entityID string, fn func(Change)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.topics == nil {
		b.topics = make(map[string]map[uint64]func(Change))
	}
	subs := b.topics[entityID]
	if subs == nil {
		subs = make(map[uint64]func(Change))
		b.topics[entityID] = subs
	}
	b.nextID++
	id := b.nextID
	subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.topics[entityID], id)
		if len(b.topics[entityID]) == 0 {
			delete(b.topics, entityID)
		}
	}
}

// SubscribeAll registers fn for changes to every entity. Lists that hold many
// entities use this instead of one subscription per row.
func (b *Bus) SubscribeAll(fn func(Change)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.all == nil {
		b.all = make(map[uint64]func(Change))
	}
	b.nextID++
	id := b.nextID
	b.all[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Publish delivers c synchronously to the subscribers registered when it is
// called. Subscribers may publish or unsubscribe from inside the callback.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	fns := make([]func(Change), 0, len(b.topics[c.EntityID])+len(b.all))
	for _, fn := range b.topics[c.EntityID] {
		fns = append(fns, fn)
	}
	for _, fn := range b.all {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Subscribers returns the number of subscriptions that would receive a change
// for entityID.
func (b *Bus) Subscribers(entityID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[entityID]) + len(b.all)
}
