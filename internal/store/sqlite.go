package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backlab/internal/strategy"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ StrategyStore = (*SQLiteStrategyStore)(nil)

// SQLiteStrategyStore implements StrategyStore backed by a SQLite database.
// Each strategy is one row holding its configuration as a JSON document,
// keyed by name.
type SQLiteStrategyStore struct {
	db *sql.DB
}

const strategySchema = `
CREATE TABLE IF NOT EXISTS strategies (
	name       TEXT PRIMARY KEY,
	config     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// NewSQLiteStrategyStore opens (or creates) a SQLite database at dbPath and
// ensures the strategies table exists.
func NewSQLiteStrategyStore(dbPath string) (*SQLiteStrategyStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if _, err := db.Exec(strategySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating strategies table: %w", err)
	}
	return &SQLiteStrategyStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStrategyStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the configuration stored under name.
func (s *SQLiteStrategyStore) Save(ctx context.Context, name string, cfg strategy.Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling strategy %q: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO strategies (name, config, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at`,
		name, string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving strategy %q: %w", name, err)
	}
	return nil
}

// Load returns the configuration stored under name.
func (s *SQLiteStrategyStore) Load(ctx context.Context, name string) (strategy.Config, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT config FROM strategies WHERE name = ?`, name,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return strategy.Config{}, fmt.Errorf("strategy %q: %w", name, ErrStrategyNotFound)
	}
	if err != nil {
		return strategy.Config{}, fmt.Errorf("loading strategy %q: %w", name, err)
	}

	var cfg strategy.Config
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return strategy.Config{}, fmt.Errorf("unmarshalling strategy %q: %w", name, err)
	}
	return cfg, nil
}

// List returns all saved strategy names in sorted order.
func (s *SQLiteStrategyStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM strategies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing strategies: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the configuration stored under name.
func (s *SQLiteStrategyStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM strategies WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting strategy %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("strategy %q: %w", name, ErrStrategyNotFound)
	}
	return nil
}
