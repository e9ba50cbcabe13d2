package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/minder/pkg/log"
)

// EventType represents the type of event
type EventType string

const (
	EventServerStarted        EventType = "server.started"
	EventServerStopped        EventType = "server.stopped"
	EventSessionConnected     EventType = "session.connected"
	EventSessionAuthenticated EventType = "session.authenticated"
	EventSessionAuthFailed    EventType = "session.auth_failed"
	EventCommandDispatched    EventType = "session.command_dispatched"
	EventSessionClosed        EventType = "session.closed"
)

// Event represents one daemon or session lifecycle occurrence
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	SessionID string
	Peer      string
	Action    string
	Message   string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers. Missing IDs and
// timestamps are filled in.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Audit consumes events from sub and writes each one to the audit log.
// It returns when sub is closed by Unsubscribe.
func Audit(sub Subscriber) {
	logger := log.WithComponent("audit")
	for ev := range sub {
		entry := logger.Info().
			Str("event", string(ev.Type)).
			Str("event_id", ev.ID)
		if ev.SessionID != "" {
			entry = entry.Str("session_id", ev.SessionID)
		}
		if ev.Peer != "" {
			entry = entry.Str("peer", ev.Peer)
		}
		if ev.Action != "" {
			entry = entry.Str("action", ev.Action)
		}
		entry.Msg(ev.Message)
	}
}
