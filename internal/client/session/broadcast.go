package session

import "sync"

// ExpiryBroadcaster is the process-wide "auth expired" channel. Any
// HTTP-calling code that receives a 401 from an arbitrary endpoint broadcasts
// on it; the session controller subscribes and reacts. This replaces a global
// event bus with an explicit, injectable registry.
type ExpiryBroadcaster struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

func NewExpiryBroadcaster() *ExpiryBroadcaster {
	return &ExpiryBroadcaster{subs: make(map[int]func())}
}

// Subscribe registers fn and returns a cancel function that detaches it.
// Cancel is idempotent.
func (b *ExpiryBroadcaster) Subscribe(fn func()) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Broadcast invokes every subscriber. Callbacks run outside the lock, so a
// subscriber may re-enter the broadcaster.
func (b *ExpiryBroadcaster) Broadcast() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
