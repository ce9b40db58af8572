package events

import (
	"testing"
	"time"

	"github.com/cuemby/portod/pkg/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishDelivers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(&Event{Type: EventContainerCreated, Container: "a/b", Message: "created"})

	select {
	case evt := <-sub:
		assert.Equal(t, EventContainerCreated, evt.Type)
		assert.Equal(t, "a/b", evt.Container)
		assert.False(t, evt.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBrokerNotifyStateChanged(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.NotifyStateChanged("a/b", container.Stopped, container.Running)

	select {
	case evt := <-sub:
		assert.Equal(t, EventContainerStateChanged, evt.Type)
		assert.Equal(t, "stopped", evt.Metadata["from"])
		assert.Equal(t, "running", evt.Metadata["to"])
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestTreeSetStatePublishesThroughNotifier(t *testing.T) {
	tr := container.NewTree()
	b := NewBroker()
	b.Start()
	defer b.Stop()
	tr.Notifier = b

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	root, ok := tr.Get(0)
	require.True(t, ok)
	tr.SetState(root, container.Running)

	select {
	case evt := <-sub:
		assert.Equal(t, EventContainerStateChanged, evt.Type)
		assert.Equal(t, "/", evt.Container)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBrokerUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())
}
