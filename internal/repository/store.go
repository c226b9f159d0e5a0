package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Store is the key-value persistence capability backing every repository.
// There are no transactions across keys, so each owned structure lives under
// its own key and must tolerate being absent on first run.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store with the provided database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns the raw JSON stored under key. The bool is false when the key
// does not exist.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load key %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Save stores raw JSON under key, replacing any previous value.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// loadJSON decodes the value under key into dst. It reports false, leaving
// dst untouched, when the key is absent.
func loadJSON(ctx context.Context, s *Store, key string, dst any) (bool, error) {
	data, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode key %s: %w", key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, s *Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key, err)
	}
	return s.Save(ctx, key, data)
}
