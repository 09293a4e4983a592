package pubsub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/fennih/fantahustler/internal/logger"
)

// EmbeddedNATSUpstream runs a NATS server in-process. It gives development
// setups the real JetStream code path without external infrastructure.
type EmbeddedNATSUpstream struct {
	server      *server.Server
	nc          *nats.Conn
	js          nats.JetStreamContext
	subject     string
	mu          sync.RWMutex
	subscribers []chan Event
}

// EmbeddedNATSOptions configures the embedded server
type EmbeddedNATSOptions struct {
	Port     int    // -1 picks a random free port
	Subject  string
	StoreDir string // empty = in-memory JetStream storage
}

// DefaultEmbeddedNATSOptions returns development defaults
func DefaultEmbeddedNATSOptions() EmbeddedNATSOptions {
	return EmbeddedNATSOptions{
		Port:    -1,
		Subject: DefaultSubject,
	}
}

// NewEmbeddedNATSUpstream starts an embedded NATS server, connects to it
// and prepares the auction event stream.
func NewEmbeddedNATSUpstream(opts EmbeddedNATSOptions) (*EmbeddedNATSUpstream, error) {
	port := opts.Port
	if port == 0 {
		port = -1
	}
	subject := opts.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	serverOpts := &server.Options{
		Port:      port,
		JetStream: true,
		NoSigs:    true,
	}
	if opts.StoreDir != "" {
		serverOpts.StoreDir = opts.StoreDir
	}

	ns, err := server.NewServer(serverOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}
	ns.SetLogger(&natsLogger{}, false, false)

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
	}

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{subject},
		Storage:  nats.MemoryStorage,
		MaxAge:   time.Hour,
	})
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to create JetStream stream: %w", err)
	}

	u := &EmbeddedNATSUpstream{
		server:  ns,
		nc:      nc,
		js:      js,
		subject: subject,
	}

	if _, err := js.Subscribe(subject, u.relay, nats.DeliverNew()); err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	logger.Info("Embedded NATS server started", "url", ns.ClientURL(), "subject", subject)
	return u, nil
}

func (u *EmbeddedNATSUpstream) relay(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode auction event from embedded NATS", "error", err)
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
			logger.Warn("Dropping embedded NATS event for slow subscriber", "type", event.Type)
		}
	}
}

// Publish sends an event through the embedded JetStream
func (u *EmbeddedNATSUpstream) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode auction event", "error", err, "type", event.Type)
		return
	}
	if _, err := u.js.Publish(u.subject, data); err != nil {
		logger.Error("Failed to publish to embedded NATS", "error", err, "type", event.Type)
	}
}

// Subscribe registers a local relay channel
func (u *EmbeddedNATSUpstream) Subscribe() chan Event {
	ch := make(chan Event, 64)
	u.mu.Lock()
	u.subscribers = append(u.subscribers, ch)
	u.mu.Unlock()
	return ch
}

// Unsubscribe removes a relay channel
func (u *EmbeddedNATSUpstream) Unsubscribe(ch chan Event) {
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

// ServerURL returns the embedded server's client URL, useful for attaching
// extra clients while debugging.
func (u *EmbeddedNATSUpstream) ServerURL() string {
	return u.server.ClientURL()
}

// Close shuts down the connection and the embedded server
func (u *EmbeddedNATSUpstream) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, sub := range u.subscribers {
		close(sub)
	}
	u.subscribers = nil

	if u.nc != nil {
		u.nc.Close()
	}
	if u.server != nil {
		u.server.Shutdown()
		u.server.WaitForShutdown()
	}
	logger.Info("Embedded NATS server shut down")
}

// natsLogger adapts the structured logger to the NATS server's interface
type natsLogger struct{}

func (l *natsLogger) Noticef(format string, v ...interface{}) {
	logger.Info(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Warnf(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Fatalf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Errorf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Debugf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf("[NATS] "+format, v...))
}

func (l *natsLogger) Tracef(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf("[NATS TRACE] "+format, v...))
}
