package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken        = errors.New("INVALID_TOKEN")
	ErrModelNotFound       = errors.New("MODEL_NOT_FOUND")
	ErrTrimNotFound        = errors.New("TRIM_NOT_FOUND")
	ErrColorNotFound       = errors.New("COLOR_NOT_FOUND")
	ErrDealerNotFound      = errors.New("DEALER_NOT_FOUND")
	ErrRegionNotFound      = errors.New("REGION_NOT_FOUND")
	ErrOfferNotFound       = errors.New("OFFER_NOT_FOUND")
	ErrSessionNotFound     = errors.New("SESSION_NOT_FOUND")
	ErrReservationNotFound = errors.New("RESERVATION_NOT_FOUND")

	ErrIllegalTransition = errors.New("ILLEGAL_TRANSITION")
	ErrColorTrimMismatch = errors.New("COLOR_TRIM_MISMATCH")
	ErrDealerOutOfRegion = errors.New("DEALER_OUT_OF_REGION")
	ErrOfferTrimMismatch = errors.New("OFFER_TRIM_MISMATCH")
	ErrNoFinancing       = errors.New("NO_FINANCING")

	ErrCaptchaRequired   = errors.New("CAPTCHA_REQUIRED")
	ErrConsentRequired   = errors.New("CONSENT_REQUIRED")
	ErrCaptchaRejected   = errors.New("CAPTCHA_REJECTED")
	ErrRetryLocked       = errors.New("RETRY_LOCKED")
	ErrTooManyAttempts   = errors.New("TOO_MANY_ATTEMPTS")
	ErrDuplicateSubmit   = errors.New("DUPLICATE_SUBMIT")
	ErrStaleSelection    = errors.New("STALE_SELECTION")
	ErrContractRejected  = errors.New("CONTRACT_REJECTED")
	ErrSessionCorrupted  = errors.New("SESSION_CORRUPTED")
)
