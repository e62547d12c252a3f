package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/OtoHubID/otohub_api/internal/models"
)

// CatalogRepository handles data access for models, trims, colors and the
// synced stock rows hanging off them.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListModels returns all active models without their trims.
func (r *CatalogRepository) ListModels(ctx context.Context) ([]models.CarModel, error) {
	const q = `SELECT id, slug, name, brand, image_url, is_active, created_at, updated_at
	           FROM car_models WHERE is_active = true ORDER BY name`

	var out []models.CarModel
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// GetModelByID returns a model with its trims (colors and stock included).
func (r *CatalogRepository) GetModelByID(ctx context.Context, id int) (*models.CarModel, error) {
	const q = `SELECT id, slug, name, brand, image_url, is_active, created_at, updated_at
	           FROM car_models WHERE id = $1 AND is_active = true`

	var m models.CarModel
	if err := r.db.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	trims, err := r.GetTrimsByModel(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Trims = trims

	offers, err := r.GetModelOffers(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Offers = offers

	return &m, nil
}

// GetTrimsByModel returns a model's active trims with colors, stock and
// trim-level offers loaded.
func (r *CatalogRepository) GetTrimsByModel(ctx context.Context, modelID int) ([]models.Trim, error) {
	const q = `SELECT id, model_id, name, price, power_hp, transmission, fuel_use, is_active, created_at, updated_at
	           FROM trims WHERE model_id = $1 AND is_active = true ORDER BY price`

	var trims []models.Trim
	if err := r.db.SelectContext(ctx, &trims, q, modelID); err != nil {
		return nil, err
	}
	for i := range trims {
		if err := r.loadTrimChildren(ctx, &trims[i]); err != nil {
			return nil, err
		}
	}
	return trims, nil
}

// GetTrimByID returns a trim with colors, stock and trim-level offers.
func (r *CatalogRepository) GetTrimByID(ctx context.Context, id int) (*models.Trim, error) {
	const q = `SELECT id, model_id, name, price, power_hp, transmission, fuel_use, is_active, created_at, updated_at
	           FROM trims WHERE id = $1 AND is_active = true`

	var t models.Trim
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadTrimChildren(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetColorByID returns a single color option with its stock rows.
func (r *CatalogRepository) GetColorByID(ctx context.Context, id int) (*models.ColorOption, error) {
	const q = `SELECT id, trim_id, name, swatch, image_urls, position
	           FROM color_options WHERE id = $1`

	var c models.ColorOption
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	stock, err := r.getStockByColor(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Stock = stock
	return &c, nil
}

// GetModelOffers returns the model-level shared offer pool in feed order.
func (r *CatalogRepository) GetModelOffers(ctx context.Context, modelID int) ([]models.PromotionOffer, error) {
	const q = `SELECT id, model_id, trim_id, eligibility_price, term_months, down_payment, down_percent, monthly_amount, position, created_at, updated_at
	           FROM promotion_offers WHERE model_id = $1 AND trim_id IS NULL ORDER BY position, id`

	var offers []models.PromotionOffer
	if err := r.db.SelectContext(ctx, &offers, q, modelID); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *CatalogRepository) loadTrimChildren(ctx context.Context, t *models.Trim) error {
	const colorQ = `SELECT id, trim_id, name, swatch, image_urls, position
	                FROM color_options WHERE trim_id = $1 ORDER BY position, id`
	if err := r.db.SelectContext(ctx, &t.Colors, colorQ, t.ID); err != nil {
		return err
	}
	for i := range t.Colors {
		stock, err := r.getStockByColor(ctx, t.Colors[i].ID)
		if err != nil {
			return err
		}
		t.Colors[i].Stock = stock
	}

	const offerQ = `SELECT id, model_id, trim_id, eligibility_price, term_months, down_payment, down_percent, monthly_amount, position, created_at, updated_at
	                FROM promotion_offers WHERE trim_id = $1 ORDER BY position, id`
	return r.db.SelectContext(ctx, &t.Offers, offerQ, t.ID)
}

func (r *CatalogRepository) getStockByColor(ctx context.Context, colorID int) ([]models.StockEntry, error) {
	const q = `SELECT id, color_id, region_id, raw_count, synced_at
	           FROM stock_entries WHERE color_id = $1`

	var stock []models.StockEntry
	if err := r.db.SelectContext(ctx, &stock, q, colorID); err != nil {
		return nil, err
	}
	return stock, nil
}
