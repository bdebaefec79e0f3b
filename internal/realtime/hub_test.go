package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub()
	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	e := Event{Table: "tasks", Op: OpUpdate, RowID: "t1"}
	hub.Publish(e)

	assert.Equal(t, e, <-ch1)
	assert.Equal(t, e, <-ch2)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Second cancel is a no-op, and publishing after
	// unsubscribe must not panic on the closed channel.
	cancel()
	hub.Publish(Event{Table: "teams", Op: OpInsert, RowID: "tm1"})
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+8; i++ {
		hub.Publish(Event{Table: "tasks", Op: OpUpdate, RowID: "t1"})
	}

	received := 0
	for len(ch) > 0 {
		<-ch
		received++
	}
	require.Equal(t, subscriberBuffer, received)
}
