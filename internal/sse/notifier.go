package sse

import (
	"time"

	"github.com/GTDGit/devhub_api/internal/models"
)

// ProductNotifier is the interface services use to emit product events.
type ProductNotifier interface {
	NotifyDeveloperAssigned(p *models.Product, a models.Assignment, warnings []string)
	NotifyDeveloperUnassigned(p *models.Product, developerID string, warnings []string)
	NotifyStatusChanged(p *models.Product)
}

// HubNotifier implements ProductNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyDeveloperAssigned(p *models.Product, a models.Assignment, warnings []string) {
	if n.hub.ClientCount() == 0 {
		return
	}
	ev := productToEvent(EventDeveloperAssigned, p)
	ev.DeveloperID = a.DeveloperID
	ev.Role = string(a.Role)
	ev.Warnings = warnings
	n.hub.Broadcast(ev)
}

func (n *HubNotifier) NotifyDeveloperUnassigned(p *models.Product, developerID string, warnings []string) {
	if n.hub.ClientCount() == 0 {
		return
	}
	ev := productToEvent(EventDeveloperUnassigned, p)
	ev.DeveloperID = developerID
	ev.Warnings = warnings
	n.hub.Broadcast(ev)
}

func (n *HubNotifier) NotifyStatusChanged(p *models.Product) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(productToEvent(EventStatusChanged, p))
}

func productToEvent(eventType EventType, p *models.Product) *ProductEvent {
	return &ProductEvent{
		Event:       eventType,
		ProductID:   p.ID,
		ProductName: p.Name,
		Status:      string(p.Status),
		Progress:    p.Progress,
		Timestamp:   time.Now(),
	}
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) NotifyDeveloperAssigned(*models.Product, models.Assignment, []string) {}
func (NopNotifier) NotifyDeveloperUnassigned(*models.Product, string, []string)       {}
func (NopNotifier) NotifyStatusChanged(*models.Product)                               {}
