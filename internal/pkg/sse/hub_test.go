package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishToSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe(7)
	defer cleanup()

	hub.Publish(7, Event{EmployeeID: 7, Event: "approval_request.opened", Data: "x"})

	select {
	case ev := <-ch:
		assert.Equal(t, "approval_request.opened", ev.Event)
		assert.Equal(t, int64(7), ev.EmployeeID)
	default:
		t.Fatal("expected an event")
	}
}

func TestHubPublishToManyStampsRecipient(t *testing.T) {
	hub := NewHub()
	a, cleanupA := hub.Subscribe(1)
	defer cleanupA()
	b, cleanupB := hub.Subscribe(2)
	defer cleanupB()

	hub.PublishToMany([]int64{1, 2, 3}, Event{Event: "leave_request.created"})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, int64(1), (<-a).EmployeeID)
	assert.Equal(t, int64(2), (<-b).EmployeeID)
}

func TestHubFullChannelDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe(1)
	defer cleanup()

	for i := 0; i < 50; i++ {
		hub.Publish(1, Event{Event: "tick"})
	}
	assert.Equal(t, 1, hub.SubscriberCount(1))
}

func TestHubCleanup(t *testing.T) {
	hub := NewHub()
	_, cleanup1 := hub.Subscribe(1)
	_, cleanup2 := hub.Subscribe(1)
	assert.Equal(t, 2, hub.TotalSubscribers())

	cleanup1()
	cleanup1()
	assert.Equal(t, 1, hub.SubscriberCount(1))

	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())
}
