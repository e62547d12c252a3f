package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/OtoHubID/otohub_api/internal/models"
)

// DealerRepository handles data access for the dealer directory. The
// directory is synced from a separate upstream feed; this service only
// reads and administers it.
type DealerRepository struct {
	db *sqlx.DB
}

// NewDealerRepository creates a new DealerRepository.
func NewDealerRepository(db *sqlx.DB) *DealerRepository {
	return &DealerRepository{db: db}
}

// ListDealers returns all active dealers.
func (r *DealerRepository) ListDealers(ctx context.Context) ([]models.Dealer, error) {
	const q = `SELECT id, name, address, phones, region_id, rating, is_active, created_at, updated_at
	           FROM dealers WHERE is_active = true ORDER BY name`

	var out []models.Dealer
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByRegion returns all active dealers of one region.
func (r *DealerRepository) ListByRegion(ctx context.Context, regionID string) ([]models.Dealer, error) {
	const q = `SELECT id, name, address, phones, region_id, rating, is_active, created_at, updated_at
	           FROM dealers WHERE region_id = $1 AND is_active = true ORDER BY name`

	var out []models.Dealer
	if err := r.db.SelectContext(ctx, &out, q, regionID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a dealer by id, nil when absent.
func (r *DealerRepository) GetByID(ctx context.Context, id string) (*models.Dealer, error) {
	const q = `SELECT id, name, address, phones, region_id, rating, is_active, created_at, updated_at
	           FROM dealers WHERE id = $1`

	var d models.Dealer
	if err := r.db.GetContext(ctx, &d, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts a dealer row.
func (r *DealerRepository) Create(ctx context.Context, d *models.Dealer) error {
	const q = `
        INSERT INTO dealers (id, name, address, phones, region_id, rating, is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())`

	_, err := r.db.ExecContext(ctx, q, d.ID, d.Name, d.Address, d.Phones, d.RegionID, d.Rating, d.IsActive)
	return err
}

// Update updates a dealer row.
func (r *DealerRepository) Update(ctx context.Context, d *models.Dealer) error {
	const q = `
        UPDATE dealers SET
            name = $2,
            address = $3,
            phones = $4,
            region_id = $5,
            rating = $6,
            is_active = $7,
            updated_at = NOW()
        WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, d.ID, d.Name, d.Address, d.Phones, d.RegionID, d.Rating, d.IsActive)
	return err
}
