/*
Package events provides an in-memory event broker for container
lifecycle notifications.

The events package implements a lightweight event bus for broadcasting
container state changes to interested subscribers. It supports
asynchronous, non-blocking delivery, so the container tree never waits
on a slow or absent listener to finish a state transition.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  container.Tree.SetState                                  │
	│       ↓                                                    │
	│  Broker.NotifyStateChanged → Event Channel (buffer: 100)  │
	│       ↓                                                    │
	│  Broadcast Loop                                            │
	│       ↓                                                    │
	│  Subscriber Channels (buffer: 50 each)                    │
	└────────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Manages subscriber lifecycle
  - Non-blocking publish (buffered channel)
  - Graceful shutdown via stop channel

Event:
  - ID: Unique event identifier (caller-assigned, optional)
  - Type: container.created / container.state_changed / container.destroyed
  - Container: absolute name of the container the event is about
  - Timestamp: when the event occurred
  - Message: human-readable description
  - Metadata: key-value pairs for additional context (from/to state, etc.)

Subscriber:
  - Channel that receives Event pointers
  - Buffered (50 events) to handle bursts
  - Created via broker.Subscribe(), closed via broker.Unsubscribe()

# Integration

*Broker implements container.Notifier, so wiring a tree to publish state
transitions is a one-line assignment:

	tree := container.NewTree()
	broker := events.NewBroker()
	broker.Start()
	tree.Notifier = broker

Every container.Tree.SetState call after that publishes
EventContainerStateChanged with the container's absolute name and the
from/to states in Metadata. This repository's wire-protocol server is
out of scope (spec.md §1 Non-goals); it would subscribe here in the full
daemon.

# Limitations

  - In-memory only, no persistence or replay
  - Best-effort delivery: a full subscriber buffer skips that event
  - No topic filtering: subscribers filter by Event.Type themselves
*/
package events
