// Package store persists the auction document between sessions. The
// document is a single JSON blob: auctions are single-user sessions, so a
// one-row snapshot beats a normalized schema on every axis that matters
// here (atomic save, trivial export, no migrations on model changes).
package store

import (
	"errors"

	"github.com/fennih/fantahustler/internal/models"
)

var (
	// ErrNoSnapshot means no auction has been saved yet
	ErrNoSnapshot = errors.New("no auction snapshot stored")
	// ErrCorruptSnapshot wraps a snapshot that exists but cannot be decoded
	ErrCorruptSnapshot = errors.New("stored auction snapshot is corrupt")
)

// AuctionStore defines the persistence interface for the auction document
type AuctionStore interface {
	Load() (*models.AuctionDocument, error)
	Save(doc models.AuctionDocument) error
	Reset() error
	Close() error
}
