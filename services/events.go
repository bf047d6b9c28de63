package services

import (
	"sync"

	"portkeeper/internal/logger"
	"portkeeper/internal/models"
)

// Event topics pushed to the out-of-process observer layer.
const (
	TopicTunnelStatus = "tunnel-status"
	TopicTunnelURL    = "tunnel-url"
)

// StatusEvent is the tunnel-status payload, emitted on every transition.
type StatusEvent struct {
	InstanceID string              `json:"instanceId"`
	Provider   models.ProviderType `json:"provider"`
	Status     models.TunnelStatus `json:"status"`
}

// URLEvent is the tunnel-url payload, emitted when a connectable URL
// becomes known.
type URLEvent struct {
	InstanceID string `json:"instanceId"`
	URL        string `json:"url"`
}

// StatusListener observes tunnel-status events.
type StatusListener func(StatusEvent)

// URLListener observes tunnel-url events.
type URLListener func(URLEvent)

// EventBus is the in-process fan-out for tunnel events. It implements
// provider.EventSink; listeners are invoked synchronously with payload
// copies, so they must be fast and must not call back into the manager.
type EventBus struct {
	mu        sync.RWMutex
	statusSub []StatusListener
	urlSub    []URLListener
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// SubscribeStatus registers a listener for tunnel-status events.
func (b *EventBus) SubscribeStatus(fn StatusListener) {
	b.mu.Lock()
	b.statusSub = append(b.statusSub, fn)
	b.mu.Unlock()
}

// SubscribeURL registers a listener for tunnel-url events.
func (b *EventBus) SubscribeURL(fn URLListener) {
	b.mu.Lock()
	b.urlSub = append(b.urlSub, fn)
	b.mu.Unlock()
}

// PublishStatus fans a status transition out to every listener.
func (b *EventBus) PublishStatus(instanceID string, provider models.ProviderType, status models.TunnelStatus) {
	evt := StatusEvent{InstanceID: instanceID, Provider: provider, Status: status}
	logger.Debugf("Event %s: instance=%s provider=%s kind=%s",
		TopicTunnelStatus, instanceID, provider, status.Kind)

	b.mu.RLock()
	subs := append([]StatusListener(nil), b.statusSub...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(evt)
	}
}

// PublishURL fans a known-URL notification out to every listener.
func (b *EventBus) PublishURL(instanceID string, url string) {
	evt := URLEvent{InstanceID: instanceID, URL: url}
	logger.Infof("Event %s: instance=%s url=%s", TopicTunnelURL, instanceID, url)

	b.mu.RLock()
	subs := append([]URLListener(nil), b.urlSub...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(evt)
	}
}
