package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/OtoHubID/otohub_api/internal/models"
)

// OfferRepository handles admin data access for promotion offers.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository creates a new OfferRepository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// GetByID returns an offer by id, nil when absent.
func (r *OfferRepository) GetByID(ctx context.Context, id int) (*models.PromotionOffer, error) {
	const q = `SELECT id, model_id, trim_id, eligibility_price, term_months, down_payment, down_percent, monthly_amount, position, created_at, updated_at
	           FROM promotion_offers WHERE id = $1`

	var o models.PromotionOffer
	if err := r.db.GetContext(ctx, &o, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create inserts an offer row.
func (r *OfferRepository) Create(ctx context.Context, o *models.PromotionOffer) error {
	const q = `
        INSERT INTO promotion_offers (
            model_id, trim_id, eligibility_price, term_months, down_payment,
            down_percent, monthly_amount, position, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
        RETURNING id`

	return r.db.QueryRowContext(ctx, q,
		o.ModelID, o.TrimID, o.EligibilityPrice, o.TermMonths, o.DownPayment,
		o.DownPercent, o.MonthlyAmount, o.Position,
	).Scan(&o.ID)
}

// Update updates an offer row.
func (r *OfferRepository) Update(ctx context.Context, o *models.PromotionOffer) error {
	const q = `
        UPDATE promotion_offers SET
            model_id = $2,
            trim_id = $3,
            eligibility_price = $4,
            term_months = $5,
            down_payment = $6,
            down_percent = $7,
            monthly_amount = $8,
            position = $9,
            updated_at = NOW()
        WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q,
		o.ID, o.ModelID, o.TrimID, o.EligibilityPrice, o.TermMonths,
		o.DownPayment, o.DownPercent, o.MonthlyAmount, o.Position)
	return err
}

// Delete removes an offer row.
func (r *OfferRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM promotion_offers WHERE id = $1`, id)
	return err
}
