package promo

import (
	"github.com/OtoHubID/otohub_api/internal/models"
)

// TieBreak selects among multiple pool offers passing the price filter.
// The upstream feed defines no tie-break; first-in-feed-order is what the
// source system was observed to do, lowest-monthly is the configurable
// alternative.
type TieBreak string

const (
	TieBreakFeedOrder     TieBreak = "feed_order"
	TieBreakLowestMonthly TieBreak = "lowest_monthly"
)

// Result is the outcome of offer resolution for one trim. Candidates keeps
// every offer that passed the filter so callers can expose alternatives.
type Result struct {
	Available  bool                    `json:"available"`
	Selected   *models.PromotionOffer  `json:"selected,omitempty"`
	Candidates []models.PromotionOffer `json:"candidates,omitempty"`
}

// Matcher resolves which financing offer, if any, applies to a trim.
//
// There is no trim→offer key upstream. A trim's own offer list is
// authoritative when it contains a complete offer; otherwise the model
// pool is filtered by price proximity: abs(eligibilityPrice − trim.Price)
// strictly below the tolerance. The tolerance is a business constant in
// currency minor units.
type Matcher struct {
	tolerance int64
	tieBreak  TieBreak
}

// NewMatcher creates a Matcher with the given tolerance and tie-break rule.
func NewMatcher(tolerance int64, tieBreak TieBreak) *Matcher {
	if tieBreak == "" {
		tieBreak = TieBreakFeedOrder
	}
	return &Matcher{
		tolerance: tolerance,
		tieBreak:  tieBreak,
	}
}

// Resolve is pure and deterministic: the same trim and pool always yield
// the same result. It must be re-run when the selected trim changes, and
// only then; financing is trim-scoped, not color- or region-scoped.
func (m *Matcher) Resolve(trim *models.Trim, pool []models.PromotionOffer) Result {
	// Trim-level offers win when any of them is complete. Incomplete
	// entries are discarded, not repaired.
	if own := completeOffers(trim.Offers); len(own) > 0 {
		return Result{
			Available:  true,
			Selected:   &own[0],
			Candidates: own,
		}
	}

	// Fall back to the model pool, filtered by price proximity.
	var candidates []models.PromotionOffer
	for _, offer := range completeOffers(pool) {
		if m.WithinTolerance(trim.Price, *offer.EligibilityPrice) {
			candidates = append(candidates, offer)
		}
	}
	if len(candidates) == 0 {
		return Result{Available: false}
	}

	return Result{
		Available:  true,
		Selected:   m.pick(candidates),
		Candidates: candidates,
	}
}

// WithinTolerance reports whether an eligibility price matches a trim
// price. The boundary is exclusive: a difference of exactly the tolerance
// does not match.
func (m *Matcher) WithinTolerance(trimPrice, eligibilityPrice int64) bool {
	diff := eligibilityPrice - trimPrice
	if diff < 0 {
		diff = -diff
	}
	return diff < m.tolerance
}

// BelongsTo reports whether offerID is in the trim's resolved offer set.
// Used by the checkout flow to invalidate a stale offer selection after a
// trim switch.
func (r Result) BelongsTo(offerID int) bool {
	for _, c := range r.Candidates {
		if c.ID == offerID {
			return true
		}
	}
	return false
}

func (m *Matcher) pick(candidates []models.PromotionOffer) *models.PromotionOffer {
	if m.tieBreak == TieBreakLowestMonthly {
		best := 0
		for i := 1; i < len(candidates); i++ {
			if effectiveMonthly(&candidates[i]) < effectiveMonthly(&candidates[best]) {
				best = i
			}
		}
		return &candidates[best]
	}
	// Feed order: candidates preserve pool order, so the first wins.
	return &candidates[0]
}

// effectiveMonthly is the stated monthly amount, or the derived one when
// the feed omits it.
func effectiveMonthly(o *models.PromotionOffer) int64 {
	if o.MonthlyAmount != nil && *o.MonthlyAmount > 0 {
		return *o.MonthlyAmount
	}
	term := int64(*o.TermMonths)
	return (*o.EligibilityPrice - *o.DownPayment + term/2) / term
}

func completeOffers(offers []models.PromotionOffer) []models.PromotionOffer {
	var out []models.PromotionOffer
	for _, o := range offers {
		if o.IsComplete() {
			out = append(out, o)
		}
	}
	return out
}
