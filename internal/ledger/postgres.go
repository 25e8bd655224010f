// internal/ledger/postgres.go
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vendor-matching/internal/models"
)

const (
	upsertSelectionQuery = `INSERT INTO vendor_selections (id, rfq_id, demand_key, vendor_id, vendor, selected_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (rfq_id, demand_key) DO UPDATE
SET id = EXCLUDED.id, vendor_id = EXCLUDED.vendor_id, vendor = EXCLUDED.vendor, selected_at = EXCLUDED.selected_at`

	getSelectionQuery = `SELECT id, rfq_id, demand_key, vendor, selected_at FROM vendor_selections WHERE rfq_id = $1 AND demand_key = $2`
)

// PostgresStore upserts into vendor_selections, one row per RFQ and demand key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Put(ctx context.Context, sel models.Selection) error {
	vendor, err := json.Marshal(sel.Vendor)
	if err != nil {
		return fmt.Errorf("encode vendor: %w", err)
	}

	_, err = s.db.ExecContext(ctx, upsertSelectionQuery,
		sel.ID, sel.RFQID, sel.DemandKey, sel.Vendor.VendorID, vendor, sel.SelectedAt)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, rfqID, demandKey string) (models.Selection, error) {
	var (
		sel    models.Selection
		vendor []byte
	)

	err := s.db.QueryRowContext(ctx, getSelectionQuery, rfqID, demandKey).
		Scan(&sel.ID, &sel.RFQID, &sel.DemandKey, &vendor, &sel.SelectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Selection{}, ErrNoSelection
	}
	if err != nil {
		return models.Selection{}, err
	}

	if err := json.Unmarshal(vendor, &sel.Vendor); err != nil {
		return models.Selection{}, fmt.Errorf("decode vendor for %s: %w", Key(rfqID, demandKey), err)
	}
	return sel, nil
}
