// Package stats fetches the informational season-stat overlay shown next
// to a player during bidding. Stats never influence the feasibility math;
// a missing backend degrades the UI, not the auction.
package stats

import (
	"context"
	"errors"

	"github.com/fennih/fantahustler/internal/models"
)

// ErrNotFound means the backend has no stats for the requested player
var ErrNotFound = errors.New("no stats for player")

// Provider serves season statistics for catalog players
type Provider interface {
	PlayerStats(ctx context.Context, name, team string) (*models.PlayerStats, error)
	Close() error
}
