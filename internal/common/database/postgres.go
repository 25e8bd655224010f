// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vendor-matching/internal/common/config"

	_ "github.com/lib/pq"
)

// selectionSchema holds one row per RFQ and demand key; re-selection
// overwrites it.
const selectionSchema = `
CREATE TABLE IF NOT EXISTS vendor_selections (
    id           UUID PRIMARY KEY,
    rfq_id       TEXT NOT NULL,
    demand_key   TEXT NOT NULL,
    vendor_id    TEXT NOT NULL,
    vendor       JSONB NOT NULL,
    selected_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (rfq_id, demand_key)
)`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pooled connection. It does not dial until first use.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an existing handle, used with sqlmock in tests.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// EnsureSchema creates the selection ledger table when missing.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, selectionSchema); err != nil {
		return fmt.Errorf("create vendor_selections: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
