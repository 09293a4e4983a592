// Package mocks provides local-development stand-ins for the external
// backends: the stats warehouse, NATS and PostgreSQL.
package mocks

import (
	"context"
	"hash/fnv"

	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/stats"
)

// MockStatsProvider serves deterministic fake season stats so the UI can
// be exercised without a ClickHouse instance.
type MockStatsProvider struct{}

// NewMockStatsProvider creates a mock stats provider
func NewMockStatsProvider() *MockStatsProvider {
	logger.Info("Using MOCK stats provider for local development")
	return &MockStatsProvider{}
}

// PlayerStats fabricates plausible numbers, stable per player so repeated
// lookups agree with each other.
func (m *MockStatsProvider) PlayerStats(_ context.Context, name, team string) (*models.PlayerStats, error) {
	h := fnv.New32a()
	h.Write([]byte(name + "_" + team))
	seed := h.Sum32()

	matches := int(seed%20) + 15
	goals := int(seed % 12)
	assists := int((seed / 12) % 8)

	return &models.PlayerStats{
		Name:      name,
		Team:      team,
		Matches:   matches,
		Goals:     goals,
		Assists:   assists,
		Minutes:   matches * (int(seed%30) + 60),
		AvgRating: 5.8 + float64(seed%15)/10,
	}, nil
}

// Close is a no-op for the mock
func (m *MockStatsProvider) Close() error {
	return nil
}

var _ stats.Provider = (*MockStatsProvider)(nil)
