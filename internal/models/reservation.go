package models

import "time"

// ReservationStatus tracks a submitted reservation through the contract
// backend.
type ReservationStatus string

const (
	ReservationSubmitting ReservationStatus = "Submitting"
	ReservationConfirmed  ReservationStatus = "Confirmed"
	ReservationFailed     ReservationStatus = "Failed"
)

// Reservation is the durable record of one confirmed submission attempt.
// IdempotencyKey is derived from the session's selection snapshot so a
// repeated click during the network round trip can never create a second
// contract for the same selection.
type Reservation struct {
	ID             int               `db:"id" json:"-"`
	ReservationID  string            `db:"reservation_id" json:"reservationId"`
	SessionID      string            `db:"session_id" json:"-"`
	IdempotencyKey string            `db:"idempotency_key" json:"-"`
	TrimID         int               `db:"trim_id" json:"trimId"`
	ColorID        int               `db:"color_id" json:"colorId"`
	DealerID       *string           `db:"dealer_id" json:"dealerId,omitempty"`
	OfferID        *int              `db:"offer_id" json:"offerId,omitempty"`
	PaymentMode    PaymentMode       `db:"payment_mode" json:"paymentMode"`
	Status         ReservationStatus `db:"status" json:"status"`
	ContractRef    *string           `db:"contract_ref" json:"contractRef,omitempty"`
	FailedReason   *string           `db:"failed_reason" json:"failedReason,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	ProcessedAt    *time.Time        `db:"processed_at" json:"processedAt,omitempty"`
	UpdatedAt      time.Time         `db:"updated_at" json:"-"`
}
