package checkout

import (
	"github.com/OtoHubID/otohub_api/internal/models"
	"github.com/OtoHubID/otohub_api/internal/promo"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// Action names a step the frontend may take next. The legal-actions set is
// exposed to the surrounding app so it can disable controls instead of
// learning transition legality by trial and error.
type Action string

const (
	ActionSelectTrim        Action = "select_trim"
	ActionSelectColor       Action = "select_color"
	ActionChooseCash        Action = "choose_cash"
	ActionChooseInstallment Action = "choose_installment"
	ActionSelectRegion      Action = "select_region"
	ActionSelectDealer      Action = "select_dealer"
	ActionChoosePlan        Action = "choose_plan"
	ActionGetCaptcha        Action = "get_captcha"
	ActionSubmit            Action = "submit"
)

// LegalActions returns the actions allowed from the session's current
// state.
func LegalActions(sess *models.SelectionSession) []Action {
	switch sess.State {
	case models.StateBrowsing:
		return []Action{ActionSelectTrim}
	case models.StateTrimSelected:
		return []Action{ActionSelectTrim, ActionSelectColor}
	case models.StateColorSelected:
		return []Action{ActionSelectTrim, ActionSelectColor, ActionChooseCash, ActionChooseInstallment, ActionChoosePlan}
	case models.StateRegionPending:
		return []Action{ActionSelectTrim, ActionSelectColor, ActionSelectRegion, ActionChooseInstallment, ActionChoosePlan}
	case models.StateDealerPending:
		return []Action{ActionSelectTrim, ActionSelectColor, ActionSelectRegion, ActionSelectDealer, ActionChooseInstallment, ActionChoosePlan}
	case models.StatePlanPending:
		return []Action{ActionSelectTrim, ActionSelectColor, ActionChooseCash, ActionChoosePlan}
	case models.StateReadyToSubmit:
		return []Action{ActionSelectTrim, ActionSelectColor, ActionSelectRegion, ActionSelectDealer, ActionChoosePlan, ActionGetCaptcha}
	case models.StateCaptchaPending:
		return []Action{ActionGetCaptcha, ActionSubmit}
	case models.StateFailed:
		return []Action{ActionGetCaptcha}
	default: // Submitting, Confirmed
		return nil
	}
}

// ValidateForSubmit re-checks the session's invariants against fresh
// catalog data immediately before the contract call. A violation here
// means the state machine was bypassed: it is a programming error, not a
// user error, and must abort the submission.
func ValidateForSubmit(sess *models.SelectionSession, trim *models.Trim, resolved promo.Result) error {
	if trim == nil || trim.ID != sess.TrimID {
		return utils.ErrSessionCorrupted
	}

	colorOK := false
	for _, c := range trim.Colors {
		if c.ID == sess.ColorID {
			colorOK = true
			break
		}
	}
	if !colorOK {
		return utils.ErrSessionCorrupted
	}

	switch sess.PaymentMode {
	case models.PayModeCash:
		if sess.RegionID == "" || sess.DealerID == "" {
			return utils.ErrSessionCorrupted
		}
	case models.PayModeInstallment:
		if sess.OfferID == 0 || !resolved.BelongsTo(sess.OfferID) {
			return utils.ErrSessionCorrupted
		}
	default:
		return utils.ErrSessionCorrupted
	}
	return nil
}
