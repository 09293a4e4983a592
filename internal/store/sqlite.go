package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fennih/fantahustler/internal/models"
)

// SQLiteStore implements AuctionStore on a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the auction database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS auction_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		document TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load() (*models.AuctionDocument, error) {
	var raw string
	err := s.db.QueryRow(`SELECT document FROM auction_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var doc models.AuctionDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return &doc, nil
}

func (s *SQLiteStore) Save(doc models.AuctionDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode auction document: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO auction_state (id, document, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`, string(raw), time.Now().UnixMilli())
	return err
}

func (s *SQLiteStore) Reset() error {
	_, err := s.db.Exec(`DELETE FROM auction_state WHERE id = 1`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
