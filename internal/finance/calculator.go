package finance

import (
	"github.com/OtoHubID/otohub_api/internal/models"
)

// Plan is a concrete payment plan for a trim. When no offer resolves, the
// plan is explicitly cash-only: Available is false, the single payment is
// the full trim price, and term/monthly are zero rather than values a
// caller could misread as free financing.
type Plan struct {
	Available     bool    `json:"available"`
	OfferID       int     `json:"offerId,omitempty"`
	CashPrice     int64   `json:"cashPrice"`
	DownPayment   int64   `json:"downPayment"`
	Monthly       int64   `json:"monthly"`
	TermMonths    int     `json:"termMonths"`
	TotalPayable  int64   `json:"totalPayable"`
	MarkupAmount  int64   `json:"markupAmount"`
	MarkupPercent float64 `json:"markupPercent"`
}

// Compute turns a resolved offer into a payment plan for a trim price.
// offer may be nil, meaning no financing is available.
func Compute(trimPrice int64, offer *models.PromotionOffer) Plan {
	if offer == nil || !offer.IsComplete() {
		return Plan{
			Available:    false,
			CashPrice:    trimPrice,
			TotalPayable: trimPrice,
		}
	}

	down := *offer.DownPayment
	term := *offer.TermMonths

	monthly := int64(0)
	if offer.MonthlyAmount != nil && *offer.MonthlyAmount > 0 {
		monthly = *offer.MonthlyAmount
	} else {
		// Rounded to the smallest display unit, half up.
		monthly = (*offer.EligibilityPrice - down + int64(term)/2) / int64(term)
	}

	total := down + monthly*int64(term)

	// Markup of the offer's eligibility price over the cash price: the
	// cost of financing shown to the customer.
	markup := *offer.EligibilityPrice - trimPrice
	markupPct := 0.0
	if trimPrice > 0 {
		markupPct = float64(markup) / float64(trimPrice) * 100
	}

	return Plan{
		Available:     true,
		OfferID:       offer.ID,
		CashPrice:     trimPrice,
		DownPayment:   down,
		Monthly:       monthly,
		TermMonths:    term,
		TotalPayable:  total,
		MarkupAmount:  markup,
		MarkupPercent: markupPct,
	}
}
