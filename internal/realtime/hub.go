// internal/realtime/hub.go
package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventStatusUpdate  EventType = "STATUS_UPDATE"
	EventLicenseUpdate EventType = "LICENSE_UPDATE"
	EventConnected     EventType = "CONNECTED"
)

// Event is the small tagged record pushed to connected clients. It is a hint
// to refetch or optimistically merge, never the authoritative payload: the
// store write and the broadcast are eventually consistent by design.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// StatusUpdate reports that one per-state workflow of a license moved, or,
// when State is empty and License is set, that the whole record changed.
type StatusUpdate struct {
	LicenseID uuid.UUID   `json:"license_id"`
	State     string      `json:"state,omitempty"`
	Status    string      `json:"status,omitempty"`
	License   interface{} `json:"license,omitempty"`
}

// LicenseUpdate is the coarse-grained "something about licenses changed"
// signal for dashboards that list many requests.
type LicenseUpdate struct {
	Message string `json:"message"`
}

// subscriberQueueSize bounds each subscriber's in-flight event queue. Events
// are low-frequency human actions, so a stalled consumer loses the oldest
// entries rather than stalling anyone else.
const subscriberQueueSize = 64

// Subscriber is one connected client's view of the event stream. Events
// arrive in publish order; filtering by relevance is the consumer's job.
type Subscriber struct {
	events chan Event
	hub    *Hub

	closeOnce sync.Once
}

// Events is the subscriber's ordered event stream. The channel is closed when
// the subscriber is removed from the hub.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Close detaches the subscriber from the hub. Safe to call more than once.
func (s *Subscriber) Close() {
	s.hub.unsubscribe(s)
}

// Hub fans published events out to every subscriber. A single goroutine owns
// registration and delivery, so subscribers always observe events in publish
// order. There is no acknowledgement, replay, or backlog: a client that
// reconnects starts a fresh subscription.
type Hub struct {
	publish     chan Event
	register    chan *Subscriber
	unregister  chan *Subscriber
	done        chan struct{}
	stopOnce    sync.Once
	subscribers map[*Subscriber]bool
}

func NewHub() *Hub {
	return &Hub{
		publish:     make(chan Event, 256),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		done:        make(chan struct{}),
		subscribers: make(map[*Subscriber]bool),
	}
}

// Run owns the subscriber set until Stop is called. Start it once, on its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.subscribers[sub] = true
			// Liveness signal, always the first event a subscriber sees.
			h.deliver(sub, Event{Type: EventConnected, Data: LicenseUpdate{Message: "connected"}})

		case sub := <-h.unregister:
			if h.subscribers[sub] {
				delete(h.subscribers, sub)
				sub.closeOnce.Do(func() { close(sub.events) })
			}

		case event := <-h.publish:
			for sub := range h.subscribers {
				h.deliver(sub, event)
			}

		case <-h.done:
			for sub := range h.subscribers {
				delete(h.subscribers, sub)
				sub.closeOnce.Do(func() { close(sub.events) })
			}
			return
		}
	}
}

// Stop shuts the hub down and closes every subscriber stream.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// deliver enqueues without ever blocking the hub: when a subscriber's queue
// is full the oldest entry is dropped to make room for the newest.
func (h *Hub) deliver(sub *Subscriber, event Event) {
	for {
		select {
		case sub.events <- event:
			return
		default:
		}
		select {
		case <-sub.events:
			logrus.Debug("Dropped oldest event for slow subscriber")
		default:
		}
	}
}

// Subscribe attaches a new consumer. Every subscriber receives every event
// published after attachment, starting with CONNECTED.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		events: make(chan Event, subscriberQueueSize),
		hub:    h,
	}
	select {
	case h.register <- sub:
	case <-h.done:
		sub.closeOnce.Do(func() { close(sub.events) })
	}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish hands an event to the hub. It never blocks on subscriber
// readiness; if the hub's own intake is saturated the event is dropped and
// logged, acceptable for human-paced status changes.
func (h *Hub) Publish(event Event) {
	select {
	case h.publish <- event:
	case <-h.done:
	default:
		logrus.WithField("type", event.Type).Warn("Broadcast queue full, dropping event")
	}
}

// PublishStateStatus announces a single per-state status change.
func (h *Hub) PublishStateStatus(licenseID uuid.UUID, state, status string) {
	h.Publish(Event{
		Type: EventStatusUpdate,
		Data: StatusUpdate{LicenseID: licenseID, State: state, Status: status},
	})
}

// PublishLicense announces that a whole license record changed, carrying the
// record for optimistic UI updates.
func (h *Hub) PublishLicense(licenseID uuid.UUID, license interface{}) {
	h.Publish(Event{
		Type: EventStatusUpdate,
		Data: StatusUpdate{LicenseID: licenseID, License: license},
	})
}

// PublishLicenseUpdate announces a coarse-grained change, such as a new
// renewal draft appearing.
func (h *Hub) PublishLicenseUpdate(message string) {
	h.Publish(Event{
		Type: EventLicenseUpdate,
		Data: LicenseUpdate{Message: message},
	})
}
