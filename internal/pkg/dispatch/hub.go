package dispatch

import (
	"context"
	"encoding/json"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/sse"
)

// HubPublisher pushes events to the SSE connections of their recipients.
// Offline recipients simply miss the live update.
type HubPublisher struct {
	hub *sse.Hub
}

func NewHubPublisher(hub *sse.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, event outbox.Event) error {
	p.hub.PublishToMany(event.Recipients, sse.Event{
		Event: string(event.EventType),
		Data:  json.RawMessage(event.Payload),
	})
	return nil
}
