package checkout

import (
	"time"

	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/promo"
	"github.com/OtoHubID/otohub_api/internal/utils"
	"github.com/OtoHubID/otohub_api/pkg/captcha"
)

// Machine drives a selection session through the checkout lifecycle.
//
// Every transition takes the session explicitly and mutates it in place;
// persistence is the caller's responsibility. The machine never talks to
// the network: CAPTCHA verification and contract submission happen in the
// service layer, which reports their outcome back via RecordFailure and
// RecordSuccess.
type Machine struct {
	cooldown    time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewMachine creates a Machine with the given retry cooldown and hard
// attempt cap. The cap is enforced here, server-side; the cooldown is UX
// backpressure only.
func NewMachine(cooldown time.Duration, maxAttempts int) *Machine {
	return &Machine{
		cooldown:    cooldown,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// NewSession opens a fresh session for a model page.
func NewSession(id string, modelID int) *models.SelectionSession {
	now := time.Now()
	return &models.SelectionSession{
		ID:        id,
		State:     models.StateBrowsing,
		ModelID:   modelID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SelectTrim records a trim choice. Switching trim resets the color to the
// trim's first color and invalidates any selected offer: the offer set is
// trim-scoped and must be re-resolved by the caller.
func (m *Machine) SelectTrim(sess *models.SelectionSession, trim *models.Trim) error {
	if sess.State == models.StateSubmitting || sess.State == models.StateConfirmed {
		return utils.ErrIllegalTransition
	}
	if trim.ModelID != sess.ModelID {
		return utils.ErrTrimNotFound
	}

	sess.TrimID = trim.ID
	sess.ColorID = 0
	if len(trim.Colors) > 0 {
		sess.ColorID = trim.Colors[0].ID
	}
	sess.OfferID = 0
	if sess.PaymentMode == models.PayModeInstallment {
		sess.PaymentMode = ""
	}
	sess.Generation++

	if sess.ColorID != 0 {
		sess.State = models.StateColorSelected
	} else {
		sess.State = models.StateTrimSelected
	}
	return nil
}

// SelectColor records a color choice. The color must belong to the
// currently selected trim.
func (m *Machine) SelectColor(sess *models.SelectionSession, color *models.ColorOption) error {
	if sess.TrimID == 0 {
		return utils.ErrIllegalTransition
	}
	if sess.State == models.StateSubmitting || sess.State == models.StateConfirmed {
		return utils.ErrIllegalTransition
	}
	if color.TrimID != sess.TrimID {
		return utils.ErrColorTrimMismatch
	}

	sess.ColorID = color.ID
	sess.Generation++
	if sess.State == models.StateTrimSelected || sess.State == models.StateBrowsing {
		sess.State = models.StateColorSelected
	}
	return nil
}

// ChooseCash enters the dealer-pickup flow.
func (m *Machine) ChooseCash(sess *models.SelectionSession) error {
	if sess.TrimID == 0 || sess.ColorID == 0 {
		return utils.ErrIllegalTransition
	}
	if sess.State == models.StateSubmitting || sess.State == models.StateConfirmed {
		return utils.ErrIllegalTransition
	}

	sess.PaymentMode = models.PayModeCash
	sess.OfferID = 0
	if sess.RegionID == "" {
		sess.State = models.StateRegionPending
	} else if sess.DealerID == "" {
		sess.State = models.StateDealerPending
	} else {
		sess.State = models.StateReadyToSubmit
	}
	return nil
}

// ChooseInstallment enters the installment flow. The concrete plan is
// picked afterwards via ChoosePlan; a previously selected offer keeps the
// session ready.
func (m *Machine) ChooseInstallment(sess *models.SelectionSession) error {
	if sess.TrimID == 0 || sess.ColorID == 0 {
		return utils.ErrIllegalTransition
	}
	if sess.State == models.StateSubmitting || sess.State == models.StateConfirmed {
		return utils.ErrIllegalTransition
	}

	sess.PaymentMode = models.PayModeInstallment
	if sess.OfferID != 0 {
		sess.State = models.StateReadyToSubmit
	} else {
		sess.State = models.StatePlanPending
	}
	return nil
}

// SelectRegion records a region choice. Region constrains dealer: a dealer
// selected under a different region is cleared.
func (m *Machine) SelectRegion(sess *models.SelectionSession, regionID string) error {
	if sess.State != models.StateRegionPending && sess.State != models.StateDealerPending && sess.State != models.StateReadyToSubmit {
		return utils.ErrIllegalTransition
	}
	if !models.IsValidRegion(regionID) {
		return utils.ErrRegionNotFound
	}

	if sess.RegionID != regionID {
		sess.DealerID = ""
	}
	sess.RegionID = regionID
	sess.Generation++
	sess.State = models.StateDealerPending
	return nil
}

// SelectDealer records a dealer choice. The dealer must belong to the
// selected region.
func (m *Machine) SelectDealer(sess *models.SelectionSession, dealer *models.Dealer) error {
	if sess.State != models.StateDealerPending && sess.State != models.StateReadyToSubmit {
		return utils.ErrIllegalTransition
	}
	if sess.RegionID == "" || dealer.RegionID != sess.RegionID {
		return utils.ErrDealerOutOfRegion
	}

	sess.DealerID = dealer.ID
	sess.Generation++
	sess.State = models.StateReadyToSubmit
	return nil
}

// ChoosePlan enters the installment flow with a specific offer. The offer
// must belong to the current trim's resolved set. Installment bypasses the
// region/dealer requirement entirely: a financed reservation is legal
// without a physical dealer.
func (m *Machine) ChoosePlan(sess *models.SelectionSession, offerID int, resolved promo.Result) error {
	if sess.TrimID == 0 || sess.ColorID == 0 {
		return utils.ErrIllegalTransition
	}
	if sess.State == models.StateSubmitting || sess.State == models.StateConfirmed {
		return utils.ErrIllegalTransition
	}
	if !resolved.Available {
		return utils.ErrNoFinancing
	}
	if !resolved.BelongsTo(offerID) {
		return utils.ErrOfferTrimMismatch
	}

	sess.PaymentMode = models.PayModeInstallment
	sess.OfferID = offerID
	sess.State = models.StateReadyToSubmit
	return nil
}

// IssueChallenge attaches a fresh CAPTCHA challenge and gates submission
// behind it.
func (m *Machine) IssueChallenge(sess *models.SelectionSession, ch *captcha.Challenge) error {
	switch sess.State {
	case models.StateReadyToSubmit, models.StateCaptchaPending, models.StateFailed:
	default:
		return utils.ErrIllegalTransition
	}

	sess.CaptchaID = ch.ChallengeID
	sess.CaptchaImageRef = ch.ImageRef
	sess.State = models.StateCaptchaPending
	return nil
}

// BeginSubmit validates the CaptchaPending → Submitting transition. All
// rejections here are local: no network call has happened yet.
func (m *Machine) BeginSubmit(sess *models.SelectionSession, captchaCode string, consent bool) error {
	if sess.State != models.StateCaptchaPending {
		return utils.ErrIllegalTransition
	}
	if captchaCode == "" {
		return utils.ErrCaptchaRequired
	}
	if !consent {
		return utils.ErrConsentRequired
	}
	if sess.RetryUnlockAt != nil && m.now().Before(*sess.RetryUnlockAt) {
		return utils.ErrRetryLocked
	}
	if m.maxAttempts > 0 && sess.CaptchaAttempts >= m.maxAttempts {
		return utils.ErrTooManyAttempts
	}

	sess.State = models.StateSubmitting
	return nil
}

// RecordFailure handles a rejected submission: bump the attempt count and
// start the cooldown. The caller issues a fresh challenge afterwards,
// which moves the session back to CaptchaPending.
func (m *Machine) RecordFailure(sess *models.SelectionSession) error {
	if sess.State != models.StateSubmitting {
		return utils.ErrIllegalTransition
	}

	sess.CaptchaAttempts++
	unlock := m.now().Add(m.cooldown)
	sess.RetryUnlockAt = &unlock
	sess.State = models.StateFailed
	return nil
}

// RecordSuccess finalizes a confirmed submission, clearing the CAPTCHA
// fields.
func (m *Machine) RecordSuccess(sess *models.SelectionSession) error {
	if sess.State != models.StateSubmitting {
		return utils.ErrIllegalTransition
	}

	sess.CaptchaAttempts = 0
	sess.CaptchaID = ""
	sess.CaptchaImageRef = ""
	sess.RetryUnlockAt = nil
	sess.State = models.StateConfirmed
	return nil
}
