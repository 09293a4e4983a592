package mocks

import (
	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/store"
)

// MockPostgresStore stands in for PostgreSQL using SQLite, so local
// development persists snapshots without a database server.
type MockPostgresStore struct {
	store.AuctionStore
}

// NewMockPostgresStore creates a SQLite-backed stand-in
func NewMockPostgresStore(sqliteFile string) (*MockPostgresStore, error) {
	logger.Info("Using MOCK Postgres (SQLite) for local development")

	s, err := store.NewSQLiteStore(sqliteFile)
	if err != nil {
		return nil, err
	}
	return &MockPostgresStore{AuctionStore: s}, nil
}
