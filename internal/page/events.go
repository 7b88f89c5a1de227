package page

import "sync"

// FilterBus is an in-process FilterEvents implementation
type FilterBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// NewFilterBus creates an empty bus
func NewFilterBus() *FilterBus {
	return &FilterBus{subs: make(map[int]func())}
}

// Subscribe registers fn and returns a function removing it
func (b *FilterBus) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish notifies every subscriber
func (b *FilterBus) Publish() {
	b.mu.Lock()
	subs := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
