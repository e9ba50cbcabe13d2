/*
Package events provides an in-memory event broker for Minder's session audit
feed.

The events package implements a lightweight event bus broadcasting daemon and
session lifecycle events to interested subscribers. The daemon publishes one
event per lifecycle step; the audit log subscribes at startup, and tests
subscribe to observe session behavior without parsing log output.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Event Broker                   │          │
	│  │  - In-memory message bus                    │          │
	│  │  - All events broadcast to all subscribers  │          │
	│  │  - Non-blocking publish                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Event Distribution                 │          │
	│  │                                              │          │
	│  │  Publisher → Event Channel (buffer: 100)    │          │
	│  │       ↓                                      │          │
	│  │  Broadcast Loop                              │          │
	│  │       ↓                                      │          │
	│  │  Subscriber Channels (buffer: 50 each)      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Event Types                       │          │
	│  │                                              │          │
	│  │  Server Events:                             │          │
	│  │    - server.started                         │          │
	│  │    - server.stopped                         │          │
	│  │                                              │          │
	│  │  Session Events:                            │          │
	│  │    - session.connected                      │          │
	│  │    - session.authenticated                  │          │
	│  │    - session.auth_failed                    │          │
	│  │    - session.command_dispatched             │          │
	│  │    - session.closed                         │          │
	│  └────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────┘

# Delivery Semantics

  - Publish never blocks the publishing session: events flow through a
    buffered channel and a subscriber whose buffer is full is skipped
  - Delivery is best-effort; the audit feed is observability, not a
    durable record
  - Event ID and timestamp are filled in at publish time when absent

# Usage

Wiring the audit log at daemon startup:

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go events.Audit(sub)
	defer broker.Unsubscribe(sub)

Publishing from a session:

	broker.Publish(&events.Event{
		Type:      events.EventSessionAuthenticated,
		SessionID: sessionID,
		Peer:      peer,
		Message:   "Authentication successful",
	})

Observing in tests:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	// drive a session, then assert on <-sub

# Integration Points

  - pkg/server: Publishes session lifecycle events
  - cmd/minder: Starts the broker and the audit subscriber
  - pkg/log: Audit writes structured entries under component=audit

# See Also

  - pkg/server session state machine
  - Go channels: https://go.dev/ref/spec#Channel_types
*/
package events
