// Package pubsub distributes auction events to live listeners. The local
// broker fans events out to in-process subscribers (the SSE handler); an
// optional upstream (NATS) bridges events across instances so a second
// screen following the same auction stays in sync.
package pubsub

import (
	"sync"

	"github.com/fennih/fantahustler/internal/logger"
)

// Auction event types carried on the wire
const (
	EventPlayerAcquired  = "player.acquired"
	EventPlayerReleased  = "player.released"
	EventPlayerRepriced  = "player.repriced"
	EventRoleAssigned    = "player.roleAssigned"
	EventTierChanged     = "player.tierChanged"
	EventNoteChanged     = "player.noteChanged"
	EventFavoriteChanged = "player.favoriteChanged"
	EventDiscardChanged  = "player.discardChanged"
	EventCatalogReplaced = "catalog.replaced"
	EventTargetsChanged  = "targets.changed"
	EventBudgetChanged   = "budget.changed"
	EventStateRestored   = "state.restored"
	EventStateReset      = "state.reset"
)

// Event is a single auction event
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Upstream is a cross-instance event transport (NATS or a stand-in)
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// Broker fans auction events out to local subscribers
type Broker struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream
}

// New creates a local-only broker
func New() *Broker {
	return &Broker{}
}

// NewWithUpstream creates a broker bridged to an upstream transport.
// Published events go to the upstream, which echoes them back to every
// instance (this one included); local delivery happens on the echo so all
// instances observe the same event order.
func NewWithUpstream(upstream Upstream) *Broker {
	b := &Broker{upstream: upstream}

	go func() {
		ch := upstream.Subscribe()
		for event := range ch {
			b.deliver(event)
		}
		logger.Debug("Upstream event channel closed")
	}()

	return b
}

// Subscribe registers a listener. The channel is buffered; slow consumers
// drop events rather than blocking the auction.
func (b *Broker) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes a listener and closes its channel
func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			close(ch)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all listeners, through the upstream when one
// is configured.
func (b *Broker) Publish(event Event) {
	if b.upstream != nil {
		b.upstream.Publish(event)
		return
	}
	b.deliver(event)
}

func (b *Broker) deliver(event Event) {
	b.mu.RLock()
	subs := make([]chan Event, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			logger.Warn("Dropping event for slow subscriber", "type", event.Type)
		}
	}
}
