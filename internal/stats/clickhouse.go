package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/fennih/fantahustler/internal/models"
)

// ClickHouseProvider reads aggregated match data from a ClickHouse
// warehouse fed by the league's data pipeline.
type ClickHouseProvider struct {
	conn driver.Conn
}

// NewClickHouseProvider connects to ClickHouse and verifies the connection
func NewClickHouseProvider(addr, database, username, password string) (*ClickHouseProvider, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseProvider{conn: conn}, nil
}

// PlayerStats aggregates the current season's appearances for one player.
// Matching is by name and team, the same key the auction uses across
// catalog re-imports.
func (c *ClickHouseProvider) PlayerStats(ctx context.Context, name, team string) (*models.PlayerStats, error) {
	query := `
		SELECT
			count() AS matches,
			sum(goals) AS goals,
			sum(assists) AS assists,
			sum(minutes) AS minutes,
			avg(rating) AS avg_rating
		FROM player_appearances
		WHERE player_name = $1 AND team = $2
		AND season = (SELECT max(season) FROM player_appearances)
	`

	var (
		matches   uint64
		goals     uint64
		assists   uint64
		minutes   uint64
		avgRating float64
	)
	row := c.conn.QueryRow(ctx, query, name, team)
	if err := row.Scan(&matches, &goals, &assists, &minutes, &avgRating); err != nil {
		return nil, err
	}
	if matches == 0 {
		return nil, ErrNotFound
	}

	return &models.PlayerStats{
		Name:      name,
		Team:      team,
		Matches:   int(matches),
		Goals:     int(goals),
		Assists:   int(assists),
		Minutes:   int(minutes),
		AvgRating: avgRating,
	}, nil
}

// Close closes the ClickHouse connection
func (c *ClickHouseProvider) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

var _ Provider = (*ClickHouseProvider)(nil)

// IsNotFound reports whether err means "player has no stats" rather than a
// backend failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
