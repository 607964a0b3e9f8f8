package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpiryBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	b := NewExpiryBroadcaster()

	var first, second int
	b.Subscribe(func() { first++ })
	b.Subscribe(func() { second++ })

	b.Broadcast()
	b.Broadcast()

	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestExpiryBroadcaster_CancelDetaches(t *testing.T) {
	b := NewExpiryBroadcaster()

	var calls int
	cancel := b.Subscribe(func() { calls++ })

	b.Broadcast()
	cancel()
	cancel() // idempotent
	b.Broadcast()

	assert.Equal(t, 1, calls)
}

func TestExpiryBroadcaster_SubscriberMayReenter(t *testing.T) {
	b := NewExpiryBroadcaster()

	var nested int
	b.Subscribe(func() {
		// Subscribing from inside a callback must not deadlock.
		b.Subscribe(func() { nested++ })
	})

	b.Broadcast()
	b.Broadcast()

	assert.Equal(t, 1, nested)
}

func TestExpiryBroadcaster_BroadcastWithoutSubscribers(t *testing.T) {
	b := NewExpiryBroadcaster()
	assert.NotPanics(t, func() { b.Broadcast() })
}
