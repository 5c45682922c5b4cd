// internal/realtime/hub_test.go
package realtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscriber stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscriberReceivesConnectedFirst(t *testing.T) {
	hub := startHub(t)

	sub := hub.Subscribe()
	defer sub.Close()

	ev := receive(t, sub)
	assert.Equal(t, EventConnected, ev.Type)
}

func TestEventsArriveInPublishOrder(t *testing.T) {
	hub := startHub(t)
	sub := hub.Subscribe()
	defer sub.Close()
	receive(t, sub) // CONNECTED

	licenseID := uuid.New()
	hub.PublishStateStatus(licenseID, "SP", "under_review")
	hub.PublishStateStatus(licenseID, "MG", "approved")
	hub.PublishLicenseUpdate("refetch")

	ev := receive(t, sub)
	require.Equal(t, EventStatusUpdate, ev.Type)
	update, ok := ev.Data.(StatusUpdate)
	require.True(t, ok)
	assert.Equal(t, licenseID, update.LicenseID)
	assert.Equal(t, "SP", update.State)
	assert.Equal(t, "under_review", update.Status)

	ev = receive(t, sub)
	require.Equal(t, EventStatusUpdate, ev.Type)
	assert.Equal(t, "MG", ev.Data.(StatusUpdate).State)

	ev = receive(t, sub)
	assert.Equal(t, EventLicenseUpdate, ev.Type)
}

func TestEverySubscriberReceivesEveryEvent(t *testing.T) {
	hub := startHub(t)

	subs := make([]*Subscriber, 3)
	for i := range subs {
		subs[i] = hub.Subscribe()
		defer subs[i].Close()
		receive(t, subs[i]) // CONNECTED
	}

	hub.PublishLicenseUpdate("draft created")

	for i, sub := range subs {
		ev := receive(t, sub)
		assert.Equal(t, EventLicenseUpdate, ev.Type, "subscriber %d", i)
	}
}

func TestSlowSubscriberDropsOldestKeepsNewest(t *testing.T) {
	hub := startHub(t)
	slow := hub.Subscribe()
	defer slow.Close()
	receive(t, slow) // CONNECTED

	// Overfill the queue without consuming anything.
	total := subscriberQueueSize * 2
	for i := 0; i < total; i++ {
		hub.PublishLicenseUpdate(fmt.Sprintf("event-%d", i))
	}

	// Wait for the hub to drain its intake and finish fanning out before
	// touching the queue; delivery never blocks, so once the intake is empty
	// a short grace period is enough.
	require.Eventually(t, func() bool { return len(hub.publish) == 0 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	// The saturated queue holds exactly the newest events, in order; the
	// oldest were dropped to make room.
	require.Equal(t, subscriberQueueSize, len(slow.events))
	for i := 0; i < subscriberQueueSize; i++ {
		ev := receive(t, slow)
		assert.Equal(t, fmt.Sprintf("event-%d", total-subscriberQueueSize+i),
			ev.Data.(LicenseUpdate).Message)
	}
}

func TestSlowSubscriberDoesNotStallOthers(t *testing.T) {
	hub := startHub(t)

	slow := hub.Subscribe()
	defer slow.Close()
	live := hub.Subscribe()
	defer live.Close()
	receive(t, live) // CONNECTED

	for i := 0; i < subscriberQueueSize*3; i++ {
		hub.PublishLicenseUpdate("flood")
	}
	hub.PublishStateStatus(uuid.New(), "SP", "approved")

	// The live subscriber still sees the whole stream in order while the
	// slow one sits on a saturated queue.
	var got Event
	for {
		got = receive(t, live)
		if got.Type == EventStatusUpdate {
			break
		}
	}
	assert.Equal(t, "SP", got.Data.(StatusUpdate).State)
}

func TestCloseEndsStream(t *testing.T) {
	hub := startHub(t)
	sub := hub.Subscribe()
	receive(t, sub) // CONNECTED

	sub.Close()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}

	// Publishing after close must not panic or block.
	hub.PublishLicenseUpdate("after close")
}

func TestReconnectGetsNoBacklog(t *testing.T) {
	hub := startHub(t)

	first := hub.Subscribe()
	receive(t, first) // CONNECTED
	first.Close()

	hub.PublishLicenseUpdate("missed while away")
	require.Eventually(t, func() bool { return len(hub.publish) == 0 },
		2*time.Second, 10*time.Millisecond)

	second := hub.Subscribe()
	defer second.Close()

	ev := receive(t, second)
	assert.Equal(t, EventConnected, ev.Type)
	// Nothing but CONNECTED: no replay of the missed event.
	select {
	case ev := <-second.Events():
		t.Fatalf("unexpected backlog event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopClosesAllSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sub := hub.Subscribe()
	receive(t, sub)

	hub.Stop()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed on stop")
	}

	// Subscribing to a stopped hub yields an immediately closed stream.
	late := hub.Subscribe()
	_, ok := <-late.Events()
	assert.False(t, ok)
}
