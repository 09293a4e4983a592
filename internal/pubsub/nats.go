package pubsub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/fennih/fantahustler/internal/logger"
)

// StreamName is the JetStream stream holding auction events
const StreamName = "AUCTION_EVENTS"

// DefaultSubject is the subject auction events are published on
const DefaultSubject = "auction.events"

// NATSUpstream bridges auction events over NATS JetStream so multiple
// assistant instances can follow the same auction.
type NATSUpstream struct {
	nc          *nats.Conn
	js          nats.JetStreamContext
	subject     string
	mu          sync.RWMutex
	subscribers []chan Event
}

// NewNATSUpstream connects to NATS, ensures the auction stream exists and
// starts relaying incoming events to local subscribers.
func NewNATSUpstream(natsURL, subject string) (*NATSUpstream, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err = js.StreamInfo(StreamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     StreamName,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream: %w", err)
		}
	}

	u := &NATSUpstream{nc: nc, js: js, subject: subject}

	// Relay every event, including our own, back to local subscribers.
	if _, err := js.Subscribe(subject, u.relay, nats.DeliverNew()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	logger.Info("Connected to NATS", "url", natsURL, "subject", subject)
	return u, nil
}

func (u *NATSUpstream) relay(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode auction event from NATS", "error", err)
		return
	}

	u.mu.RLock()
	subs := make([]chan Event, len(u.subscribers))
	copy(subs, u.subscribers)
	u.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			logger.Warn("Dropping NATS event for slow subscriber", "type", event.Type)
		}
	}
}

// Publish sends an event to the auction stream
func (u *NATSUpstream) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode auction event", "error", err, "type", event.Type)
		return
	}
	if _, err := u.js.Publish(u.subject, data); err != nil {
		logger.Error("Failed to publish auction event to NATS", "error", err, "type", event.Type)
	}
}

// Subscribe registers a local relay channel
func (u *NATSUpstream) Subscribe() chan Event {
	ch := make(chan Event, 64)
	u.mu.Lock()
	u.subscribers = append(u.subscribers, ch)
	u.mu.Unlock()
	return ch
}

// Unsubscribe removes a relay channel
func (u *NATSUpstream) Unsubscribe(ch chan Event) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for i, sub := range u.subscribers {
		if sub == ch {
			u.subscribers = append(u.subscribers[:i], u.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes the NATS connection and all relay channels
func (u *NATSUpstream) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, sub := range u.subscribers {
		close(sub)
	}
	u.subscribers = nil

	if u.nc != nil {
		u.nc.Close()
	}
}
