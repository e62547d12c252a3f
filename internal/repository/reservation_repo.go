package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/OtoHubID/otohub_api/internal/models"
)

// ReservationRepository handles data access for reservations.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a new reservation row.
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	const q = `
        INSERT INTO reservations (
            reservation_id, session_id, idempotency_key, trim_id, color_id,
            dealer_id, offer_id, payment_mode, status, contract_ref,
            failed_reason, created_at, processed_at
        ) VALUES (
            $1,$2,$3,$4,$5,
            $6,$7,$8,$9,$10,
            $11,NOW(),$12
        ) RETURNING id`

	return r.db.QueryRowContext(ctx, q,
		res.ReservationID, res.SessionID, res.IdempotencyKey, res.TrimID, res.ColorID,
		res.DealerID, res.OfferID, res.PaymentMode, res.Status, res.ContractRef,
		res.FailedReason, res.ProcessedAt,
	).Scan(&res.ID)
}

// Update updates an existing reservation identified by reservation_id.
func (r *ReservationRepository) Update(ctx context.Context, res *models.Reservation) error {
	const q = `
        UPDATE reservations SET
            status = $2,
            contract_ref = $3,
            failed_reason = $4,
            processed_at = $5,
            updated_at = NOW()
        WHERE reservation_id = $1`

	_, err := r.db.ExecContext(ctx, q,
		res.ReservationID, res.Status, res.ContractRef, res.FailedReason, res.ProcessedAt)
	return err
}

// GetByReservationID returns a reservation by its public id, nil when
// absent.
func (r *ReservationRepository) GetByReservationID(ctx context.Context, reservationID string) (*models.Reservation, error) {
	const q = `SELECT * FROM reservations WHERE reservation_id = $1 LIMIT 1`

	var res models.Reservation
	if err := r.db.GetContext(ctx, &res, q, reservationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

// GetByIdempotencyKey returns the reservation created for a selection
// snapshot, nil when absent.
func (r *ReservationRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Reservation, error) {
	const q = `SELECT * FROM reservations WHERE idempotency_key = $1 LIMIT 1`

	var res models.Reservation
	if err := r.db.GetContext(ctx, &res, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

// List returns reservations newest first with optional status filter.
func (r *ReservationRepository) List(ctx context.Context, status string, page, limit int) ([]models.Reservation, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	where := ""
	args := []interface{}{}
	if status != "" {
		where = "WHERE status = $1"
		args = append(args, status)
	}

	var total int
	countQ := fmt.Sprintf(`SELECT COUNT(*) FROM reservations %s`, where)
	if err := r.db.GetContext(ctx, &total, countQ, args...); err != nil {
		return nil, 0, err
	}

	listQ := fmt.Sprintf(`SELECT * FROM reservations %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, limit, offset)
	var out []models.Reservation
	if err := r.db.SelectContext(ctx, &out, listQ, args...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetStuckSubmitting returns reservations that have sat in Submitting
// longer than staleAfter but are younger than maxAge. Older ones are left
// for manual review rather than polled forever.
func (r *ReservationRepository) GetStuckSubmitting(ctx context.Context, staleAfter, maxAge time.Duration) ([]models.Reservation, error) {
	const q = `SELECT * FROM reservations
	           WHERE status = $1
	             AND created_at < NOW() - $2::interval
	             AND created_at > NOW() - $3::interval
	           ORDER BY created_at`

	var out []models.Reservation
	err := r.db.SelectContext(ctx, &out, q,
		models.ReservationSubmitting,
		fmt.Sprintf("%f seconds", staleAfter.Seconds()),
		fmt.Sprintf("%f seconds", maxAge.Seconds()),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
