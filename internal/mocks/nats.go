package mocks

import (
	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/pubsub"
)

// MockNATSUpstream stands in for NATS using the in-memory broker. Events
// stay within the process, which is all a single-instance dev setup needs.
type MockNATSUpstream struct {
	*pubsub.Broker
}

// NewMockNATSUpstream creates an in-memory upstream
func NewMockNATSUpstream() *MockNATSUpstream {
	logger.Info("Using MOCK NATS (in-memory broker) for local development")
	return &MockNATSUpstream{Broker: pubsub.New()}
}

// Close is a no-op for the mock
func (m *MockNATSUpstream) Close() {}
