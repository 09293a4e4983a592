package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/fennih/fantahustler/internal/models"
)

// PostgresStore implements AuctionStore on PostgreSQL, for deployments
// where the assistant runs behind a shared database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL and prepares the snapshot table.
// Connection pool settings and ping retries follow the usual Kubernetes
// deployment constraints: DNS propagation can lag pod startup.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (p *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS auction_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err := p.db.Exec(schema)
	return err
}

func (p *PostgresStore) Load() (*models.AuctionDocument, error) {
	var raw []byte
	err := p.db.QueryRow(`SELECT document FROM auction_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var doc models.AuctionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return &doc, nil
}

func (p *PostgresStore) Save(doc models.AuctionDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode auction document: %w", err)
	}

	_, err = p.db.Exec(`
		INSERT INTO auction_state (id, document, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()
	`, raw)
	return err
}

func (p *PostgresStore) Reset() error {
	_, err := p.db.Exec(`DELETE FROM auction_state WHERE id = 1`)
	return err
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
