package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/devhub_api/internal/models"
)

func receive(t *testing.T, c *Client) ProductEvent {
	t.Helper()
	select {
	case data := <-c.Events:
		var ev ProductEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	default:
		t.Fatal("no event delivered")
	}
	return ProductEvent{}
}

func TestHubNotifierBroadcasts(t *testing.T) {
	hub := NewHub()
	client := hub.Register("dash-1")
	defer hub.Unregister(client)
	n := NewHubNotifier(hub)

	p := &models.Product{ID: "p1", Name: "Billing Service", Status: models.ProductStatusActive, Progress: 40}
	n.NotifyDeveloperAssigned(p, models.Assignment{DeveloperID: "d1", Role: models.RoleLead}, []string{"mirror lagging"})

	ev := receive(t, client)
	assert.Equal(t, EventDeveloperAssigned, ev.Event)
	assert.Equal(t, "Billing Service", ev.ProductName)
	assert.Equal(t, "d1", ev.DeveloperID)
	assert.Equal(t, "lead", ev.Role)
	assert.Equal(t, []string{"mirror lagging"}, ev.Warnings)

	n.NotifyDeveloperUnassigned(p, "d1", nil)
	ev = receive(t, client)
	assert.Equal(t, EventDeveloperUnassigned, ev.Event)
	assert.Empty(t, ev.Role)

	n.NotifyStatusChanged(p)
	ev = receive(t, client)
	assert.Equal(t, EventStatusChanged, ev.Event)
	assert.Equal(t, "active", ev.Status)
	assert.Equal(t, 40, ev.Progress)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	client := hub.Register("slow")
	defer hub.Unregister(client)

	for i := 0; i < cap(client.Events)+10; i++ {
		hub.Broadcast(&ProductEvent{Event: EventStatusChanged, ProductID: "p1"})
	}
	assert.Len(t, client.Events, cap(client.Events))
	assert.Equal(t, int64(10), client.Dropped())
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	client := hub.Register("c1")
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(client)
	hub.Unregister(client)
	assert.Zero(t, hub.ClientCount())
	_, open := <-client.Events
	assert.False(t, open)
}

func TestHubReRegisterReplacesStream(t *testing.T) {
	hub := NewHub()
	first := hub.Register("c1")
	second := hub.Register("c1")

	_, open := <-first.Events
	assert.False(t, open)
	assert.Equal(t, 1, hub.ClientCount())

	// The stale handle must not evict the live stream.
	hub.Unregister(first)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(second)
	assert.Zero(t, hub.ClientCount())
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	client := hub.Register("c1")

	hub.Close()
	hub.Close()
	assert.Zero(t, hub.ClientCount())
	_, open := <-client.Events
	assert.False(t, open)

	late := hub.Register("c2")
	_, open = <-late.Events
	assert.False(t, open)
	assert.Zero(t, hub.ClientCount())
	hub.Unregister(late)
}
