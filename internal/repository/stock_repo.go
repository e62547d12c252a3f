package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/OtoHubID/otohub_api/internal/models"
)

// StockRepository handles the synced per-region stock rows. Rows are
// replaced wholesale per color on each sync: the feed is the source of
// truth and this table is a read-only aggregate of it.
type StockRepository struct {
	db *sqlx.DB
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(db *sqlx.DB) *StockRepository {
	return &StockRepository{db: db}
}

// ReplaceForColor swaps a color's stock rows for the latest feed snapshot
// in one transaction.
func (r *StockRepository) ReplaceForColor(ctx context.Context, colorID int, entries []models.StockEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stock_entries WHERE color_id = $1`, colorID); err != nil {
		return err
	}

	const q = `INSERT INTO stock_entries (color_id, region_id, raw_count, synced_at)
	           VALUES ($1,$2,$3,NOW())`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, q, colorID, e.RegionID, e.RawCount); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ColorRef identifies a color and its parent trim, for sync fan-out.
type ColorRef struct {
	ColorID int `db:"id"`
	TrimID  int `db:"trim_id"`
}

// ListColorIDs returns every active color in the catalog.
func (r *StockRepository) ListColorIDs(ctx context.Context) ([]ColorRef, error) {
	const q = `SELECT c.id, c.trim_id
	           FROM color_options c
	           JOIN trims t ON t.id = c.trim_id
	           WHERE t.is_active = true`

	var out []ColorRef
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}
