package models

import "time"

// PaymentMode selects between the dealer-pickup cash flow and the
// installment flow. The two flows are mutually exclusive per submission.
type PaymentMode string

const (
	PayModeCash        PaymentMode = "cash"
	PayModeInstallment PaymentMode = "installment"
)

// CheckoutState is the state of a selection session in the checkout
// lifecycle.
type CheckoutState string

const (
	StateBrowsing       CheckoutState = "Browsing"
	StateTrimSelected   CheckoutState = "TrimSelected"
	StateColorSelected  CheckoutState = "ColorSelected"
	StateRegionPending  CheckoutState = "RegionPending"
	StateDealerPending  CheckoutState = "DealerPending"
	StatePlanPending    CheckoutState = "PlanPending"
	StateReadyToSubmit  CheckoutState = "ReadyToSubmit"
	StateCaptchaPending CheckoutState = "CaptchaPending"
	StateSubmitting     CheckoutState = "Submitting"
	StateConfirmed      CheckoutState = "Confirmed"
	StateFailed         CheckoutState = "Failed"
)

// SelectionSession is the in-progress, persisted record of a customer's
// configuration choices. It is the only long-lived mutable entity: created
// when a model page is opened, mutated by every selection step, persisted
// on every committed step so a reload can resume, cleared on successful
// submission.
//
// Generation is the selection key for supersession: it is bumped on every
// selection change, and an async per-dealer breakdown result is applied
// only if it still carries the current generation.
type SelectionSession struct {
	ID              string        `json:"id"`
	State           CheckoutState `json:"state"`
	ModelID         int           `json:"modelId"`
	TrimID          int           `json:"trimId,omitempty"`
	ColorID         int           `json:"colorId,omitempty"`
	RegionID        string        `json:"regionId,omitempty"`
	DealerID        string        `json:"dealerId,omitempty"`
	PaymentMode     PaymentMode   `json:"paymentMode,omitempty"`
	OfferID         int           `json:"offerId,omitempty"`
	Generation      uint64        `json:"generation"`
	CaptchaAttempts int           `json:"captchaAttempts"`
	CaptchaID       string        `json:"captchaId,omitempty"`
	CaptchaImageRef string        `json:"captchaImageRef,omitempty"`
	RetryUnlockAt   *time.Time    `json:"retryUnlockAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// SelectionKey is the (trim, color, region) key a per-dealer breakdown
// query is issued for, plus the session generation at issue time.
type SelectionKey struct {
	TrimID     int    `json:"trimId"`
	ColorID    int    `json:"colorId"`
	RegionID   string `json:"regionId"`
	Generation uint64 `json:"generation"`
}

// Key returns the current selection key of the session.
func (s *SelectionSession) Key() SelectionKey {
	return SelectionKey{
		TrimID:     s.TrimID,
		ColorID:    s.ColorID,
		RegionID:   s.RegionID,
		Generation: s.Generation,
	}
}

// Matches reports whether k is still the session's current selection key.
// Generation alone is sufficient, the id fields are kept for diagnostics.
func (s *SelectionSession) Matches(k SelectionKey) bool {
	return s.Generation == k.Generation
}
